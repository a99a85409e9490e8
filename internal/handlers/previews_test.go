package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scenescore/backend/internal/media"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/preview"
	"github.com/scenescore/backend/internal/repositories"
)

type fakePreviewMixer struct {
	track models.PreviewTrack
	err   error
	last  preview.Request
	calls int
}

func (f *fakePreviewMixer) Mix(_ context.Context, req preview.Request) (models.PreviewTrack, error) {
	f.calls++
	f.last = req
	return f.track, f.err
}

type fakeCatalog struct {
	variations []models.AudioVariation
	effects    []models.SoundEffect
	previews   []models.PreviewTrack
	err        error
}

func (f *fakeCatalog) ListVariationsByScene(context.Context, string) ([]models.AudioVariation, error) {
	return f.variations, f.err
}

func (f *fakeCatalog) ListEffectsByScene(context.Context, string) ([]models.SoundEffect, error) {
	return f.effects, f.err
}

func (f *fakeCatalog) ListPreviewsByScene(context.Context, string) ([]models.PreviewTrack, error) {
	return f.previews, f.err
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestPreviewMix(t *testing.T) {
	mixer := &fakePreviewMixer{track: models.PreviewTrack{
		ID:              "prev-1",
		SceneID:         "scene-1",
		StorageKey:      "previews/scene-1/abc.mp3",
		DurationSeconds: 15,
	}}
	h := PreviewHandler{Previews: mixer}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/previews",
		strings.NewReader(`{"sceneId":"scene-1","musicId":"var-1","effectIds":["fx-1","fx-2"]}`))
	res := httptest.NewRecorder()
	h.Mix(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if mixer.last.SceneID != "scene-1" || mixer.last.MusicID != "var-1" || len(mixer.last.EffectIDs) != 2 {
		t.Fatalf("unexpected mix request: %+v", mixer.last)
	}
	var body struct {
		ID         string  `json:"id"`
		StorageKey string  `json:"storageKey"`
		Duration   float64 `json:"duration"`
	}
	decodeBody(t, res, &body)
	if body.ID != "prev-1" || body.Duration != 15 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPreviewMixRequiresSceneID(t *testing.T) {
	h := PreviewHandler{Previews: &fakePreviewMixer{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/previews",
		strings.NewReader(`{"musicId":"var-1"}`))
	res := httptest.NewRecorder()
	h.Mix(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestPreviewMixRateLimited(t *testing.T) {
	mixer := &fakePreviewMixer{}
	h := PreviewHandler{Previews: mixer, Limiter: denyAllLimiter{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/previews",
		strings.NewReader(`{"sceneId":"scene-1","musicId":"var-1"}`))
	res := httptest.NewRecorder()
	h.Mix(res, req)

	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.Code)
	}
	if mixer.calls != 0 {
		t.Fatal("limited request must not reach the mixer")
	}
}

func TestPreviewMixErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no sources", preview.ErrNoSources, http.StatusBadRequest},
		{"wrong scene", preview.ErrWrongScene, http.StatusBadRequest},
		{"not found", repositories.ErrNotFound, http.StatusNotFound},
		{"engine failure", &media.MixError{Output: "boom", Err: errors.New("exit status 1")}, http.StatusBadGateway},
		{"unknown", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := PreviewHandler{Previews: &fakePreviewMixer{err: tc.err}}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/previews",
				strings.NewReader(`{"sceneId":"scene-1","musicId":"var-1"}`))
			res := httptest.NewRecorder()
			h.Mix(res, req)

			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestPreviewSources(t *testing.T) {
	catalog := &fakeCatalog{
		variations: []models.AudioVariation{{ID: "var-1", SceneID: "scene-1"}},
		effects:    []models.SoundEffect{{ID: "fx-1", SceneID: "scene-1", OnsetMs: 2500}},
		previews:   []models.PreviewTrack{{ID: "prev-1", SceneID: "scene-1"}},
	}
	h := PreviewHandler{Catalog: catalog}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/previews/sources?sceneId=scene-1", nil)
	res := httptest.NewRecorder()
	h.Sources(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Variations []models.AudioVariation `json:"variations"`
		Effects    []models.SoundEffect    `json:"effects"`
		Previews   []models.PreviewTrack   `json:"previews"`
	}
	decodeBody(t, res, &body)
	if len(body.Variations) != 1 || len(body.Effects) != 1 || len(body.Previews) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPreviewSourcesRequiresSceneID(t *testing.T) {
	h := PreviewHandler{Catalog: &fakeCatalog{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/previews/sources", nil)
	res := httptest.NewRecorder()
	h.Sources(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestPreviewSourcesListFailure(t *testing.T) {
	h := PreviewHandler{Catalog: &fakeCatalog{err: errors.New("db down")}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/previews/sources?sceneId=scene-1", nil)
	res := httptest.NewRecorder()
	h.Sources(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}
