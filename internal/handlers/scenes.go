package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/repositories"
	"github.com/scenescore/backend/internal/segmenter"
)

// SceneHandler provides CRUD endpoints for confirmed scenes.
type SceneHandler struct {
	Scenes SceneStore
}

type createSceneRequest struct {
	VideoID   string  `json:"videoId"`
	ProjectID string  `json:"projectId"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

type sceneRecord struct {
	ID        string  `json:"id"`
	VideoID   string  `json:"videoId"`
	ProjectID string  `json:"projectId"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Handle dispatches /api/v1/scenes by method.
func (h SceneHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// create handles POST /api/v1/scenes. Bounds are validated with the same
// guards the interactive segmenter applies on confirm.
func (h SceneHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}
	if req.EndTime <= req.StartTime || req.StartTime < 0 {
		respondError(ctx, w, http.StatusBadRequest, "scene end must be after start")
		return
	}
	if req.EndTime-req.StartTime < segmenter.MinSceneDuration {
		respondError(ctx, w, http.StatusBadRequest, "scene too short")
		return
	}

	scene := models.Scene{
		ID:        uuid.NewString(),
		VideoID:   req.VideoID,
		ProjectID: req.ProjectID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.Scenes.Create(ctx, scene); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "scene overlaps an existing scene")
			return
		}
		logging.FromContext(ctx).Error("scene creation failed", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create scene")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toSceneRecord(scene))
}

// list handles GET /api/v1/scenes?videoId=...
func (h SceneHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	scenes, err := h.Scenes.ListByVideo(ctx, videoID)
	if err != nil {
		logging.FromContext(ctx).Error("scene listing failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list scenes")
		return
	}

	records := make([]sceneRecord, 0, len(scenes))
	for _, scene := range scenes {
		records = append(records, toSceneRecord(scene))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"scenes": records})
}

// remove handles DELETE /api/v1/scenes?id=... and, with videoId instead of
// id, removes every scene of a video.
func (h SceneHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))

	switch {
	case id != "":
		if err := h.Scenes.Delete(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "scene not found")
				return
			}
			logging.FromContext(ctx).Error("scene deletion failed", "sceneId", id, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to delete scene")
			return
		}
	case videoID != "":
		if err := h.Scenes.DeleteByVideo(ctx, videoID); err != nil {
			logging.FromContext(ctx).Error("scene deletion failed", "videoId", videoID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to delete scenes")
			return
		}
	default:
		respondError(ctx, w, http.StatusBadRequest, "id or videoId is required")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func toSceneRecord(scene models.Scene) sceneRecord {
	return sceneRecord{
		ID:        scene.ID,
		VideoID:   scene.VideoID,
		ProjectID: scene.ProjectID,
		StartTime: scene.StartTime,
		EndTime:   scene.EndTime,
	}
}
