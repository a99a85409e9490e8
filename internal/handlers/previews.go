package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/media"
	"github.com/scenescore/backend/internal/preview"
	"github.com/scenescore/backend/internal/repositories"
)

// PreviewHandler produces mixed preview tracks for scenes. Mixing spawns an
// engine subprocess, so the endpoint sits behind the rate limiter.
type PreviewHandler struct {
	Previews PreviewMixer
	Catalog  AudioCatalog
	Limiter  RateLimiter
}

type mixRequest struct {
	SceneID   string   `json:"sceneId"`
	MusicID   string   `json:"musicId"`
	EffectIDs []string `json:"effectIds"`
}

// Mix handles POST /api/v1/previews.
func (h PreviewHandler) Mix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "mix") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many mix requests")
		return
	}

	var req mixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SceneID = strings.TrimSpace(req.SceneID)
	if req.SceneID == "" {
		respondError(ctx, w, http.StatusBadRequest, "sceneId is required")
		return
	}

	track, err := h.Previews.Mix(ctx, preview.Request{
		SceneID:   req.SceneID,
		MusicID:   strings.TrimSpace(req.MusicID),
		EffectIDs: req.EffectIDs,
	})
	if err != nil {
		var mixErr *media.MixError
		switch {
		case errors.Is(err, preview.ErrNoSources):
			respondError(ctx, w, http.StatusBadRequest, "at least one audio source is required")
		case errors.Is(err, preview.ErrWrongScene):
			respondError(ctx, w, http.StatusBadRequest, "audio source belongs to a different scene")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "scene or audio source not found")
		case errors.As(err, &mixErr):
			logging.FromContext(ctx).Error("preview mix subprocess failed", "sceneId", req.SceneID, "error", err)
			respondError(ctx, w, http.StatusBadGateway, "audio mixing failed")
		default:
			logging.FromContext(ctx).Error("preview mix failed", "sceneId", req.SceneID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to mix preview")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"id":         track.ID,
		"sceneId":    track.SceneID,
		"storageKey": track.StorageKey,
		"duration":   track.DurationSeconds,
	})
}

// Sources handles GET /api/v1/previews/sources?sceneId=...: the audio
// artifacts available for mixing plus previously produced previews.
func (h PreviewHandler) Sources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	sceneID := strings.TrimSpace(r.URL.Query().Get("sceneId"))
	if sceneID == "" {
		respondError(ctx, w, http.StatusBadRequest, "sceneId is required")
		return
	}

	variations, err := h.Catalog.ListVariationsByScene(ctx, sceneID)
	if err != nil {
		logging.FromContext(ctx).Error("variation listing failed", "sceneId", sceneID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list audio sources")
		return
	}
	effects, err := h.Catalog.ListEffectsByScene(ctx, sceneID)
	if err != nil {
		logging.FromContext(ctx).Error("effect listing failed", "sceneId", sceneID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list audio sources")
		return
	}
	previews, err := h.Catalog.ListPreviewsByScene(ctx, sceneID)
	if err != nil {
		logging.FromContext(ctx).Error("preview listing failed", "sceneId", sceneID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list audio sources")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"variations": variations,
		"effects":    effects,
		"previews":   previews,
	})
}
