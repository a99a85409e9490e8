package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/timeline"
)

type fakeTimelines struct {
	thumbs      []models.Thumbnail
	cached      []models.Thumbnail
	duration    float64
	err         error
	built       int
	regenerated int
}

func (f *fakeTimelines) Timeline(_ context.Context, videoID, _ string) ([]models.Thumbnail, error) {
	f.built++
	return f.thumbs, f.err
}

func (f *fakeTimelines) Regenerate(_ context.Context, videoID, _ string) ([]models.Thumbnail, error) {
	f.regenerated++
	return f.thumbs, f.err
}

func (f *fakeTimelines) Cached(context.Context, string) ([]models.Thumbnail, error) {
	return f.cached, f.err
}

func (f *fakeTimelines) Duration(string) float64 {
	return f.duration
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestThumbnailGenerate(t *testing.T) {
	svc := &fakeTimelines{thumbs: []models.Thumbnail{
		{VideoID: "video-1", Index: 0, Timestamp: 5, StorageKey: "thumbnails/video-1/a.jpg"},
		{VideoID: "video-1", Index: 1, Timestamp: 20, StorageKey: "thumbnails/video-1/b.jpg"},
	}}
	h := ThumbnailHandler{Timelines: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnails",
		strings.NewReader(`{"videoId":"video-1","videoPath":"/uploads/clip.mp4"}`))
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		VideoID    string `json:"videoId"`
		Thumbnails []struct {
			Index      int     `json:"index"`
			Timestamp  float64 `json:"timestamp"`
			StorageKey string  `json:"storageKey"`
		} `json:"thumbnails"`
	}
	decodeBody(t, res, &body)
	if body.VideoID != "video-1" || len(body.Thumbnails) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if svc.built != 1 || svc.regenerated != 0 {
		t.Fatalf("expected one build, got build=%d regenerate=%d", svc.built, svc.regenerated)
	}
}

func TestThumbnailGenerateRegenerateFlag(t *testing.T) {
	svc := &fakeTimelines{thumbs: []models.Thumbnail{{VideoID: "video-1"}}}
	h := ThumbnailHandler{Timelines: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnails",
		strings.NewReader(`{"videoId":"video-1","videoPath":"/uploads/clip.mp4","regenerate":true}`))
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if svc.regenerated != 1 || svc.built != 0 {
		t.Fatalf("expected one regenerate, got build=%d regenerate=%d", svc.built, svc.regenerated)
	}
}

func TestThumbnailGenerateValidatesInput(t *testing.T) {
	h := ThumbnailHandler{Timelines: &fakeTimelines{}}

	for _, body := range []string{
		`not json`,
		`{"videoId":"","videoPath":"/uploads/clip.mp4"}`,
		`{"videoId":"video-1","videoPath":"  "}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnails", strings.NewReader(body))
		res := httptest.NewRecorder()
		h.Handle(res, req)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, res.Code)
		}
	}
}

func TestThumbnailGenerateEmptyBatch(t *testing.T) {
	h := ThumbnailHandler{Timelines: &fakeTimelines{err: timeline.ErrNoThumbnails}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnails",
		strings.NewReader(`{"videoId":"video-1","videoPath":"/uploads/clip.mp4"}`))
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
}

func TestThumbnailGenerateInternalError(t *testing.T) {
	h := ThumbnailHandler{Timelines: &fakeTimelines{err: errors.New("probe exploded")}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/thumbnails",
		strings.NewReader(`{"videoId":"video-1","videoPath":"/uploads/clip.mp4"}`))
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestThumbnailListServesCachedOnly(t *testing.T) {
	svc := &fakeTimelines{cached: []models.Thumbnail{{VideoID: "video-1", Index: 0}}}
	h := ThumbnailHandler{Timelines: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/thumbnails?videoId=video-1", nil)
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if svc.built != 0 || svc.regenerated != 0 {
		t.Fatal("GET must never trigger timeline construction")
	}
}

func TestThumbnailListRequiresVideoID(t *testing.T) {
	h := ThumbnailHandler{Timelines: &fakeTimelines{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/thumbnails", nil)
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestThumbnailMethodNotAllowed(t *testing.T) {
	h := ThumbnailHandler{Timelines: &fakeTimelines{}}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/thumbnails", nil)
	res := httptest.NewRecorder()
	h.Handle(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
