package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/segmenter"
)

// TrimHandler exposes the interactive trim state machine over HTTP: one
// session per client, four verbs plus the scrub-position setter.
type TrimHandler struct {
	Sessions  *segmenter.Registry
	Timelines TimelineService
	Scenes    SceneStore
}

type enterTrimRequest struct {
	VideoID string `json:"videoId"`
	// Duration is the externally supplied prop, the last resort in the
	// duration chain.
	Duration float64 `json:"duration"`
}

type seekRequest struct {
	SessionID string `json:"sessionId"`
	// Position seeks in seconds; Percent converts through the duration
	// chain instead when UsePercent is set.
	Position     float64 `json:"position"`
	Percent      float64 `json:"percent"`
	UsePercent   bool    `json:"usePercent"`
	LiveDuration float64 `json:"liveDuration"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// Enter handles POST /api/v1/trim/enter: opens a trim session.
func (h TrimHandler) Enter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req enterTrimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	recorded := func() float64 {
		if h.Timelines == nil {
			return 0
		}
		return h.Timelines.Duration(req.VideoID)
	}

	session := h.Sessions.Open(req.VideoID, recorded, req.Duration)
	respondJSON(ctx, w, http.StatusCreated, map[string]string{"sessionId": session.ID})
}

// Seek handles POST /api/v1/trim/seek: moves the scrub position, clamped by
// the session state.
func (h TrimHandler) Seek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, "trim session not found")
		return
	}
	session.ReportLiveDuration(req.LiveDuration)

	var position float64
	if req.UsePercent {
		position, err = session.SeekPercent(req.Percent)
		if errors.Is(err, segmenter.ErrNoDuration) {
			respondError(ctx, w, http.StatusUnprocessableEntity, "video duration unavailable")
			return
		}
	} else {
		position = session.Seek(req.Position)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"position": position,
		"state":    session.State().String(),
	})
}

// Select handles POST /api/v1/trim/select: marks the candidate scene start.
func (h TrimHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	session, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	start, err := session.StartSelection()
	if err != nil {
		respondError(ctx, w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"start": start})
}

// Confirm handles POST /api/v1/trim/confirm: closes the open selection as a
// scene. Rejections mutate nothing.
func (h TrimHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	session, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	scene, err := session.ConfirmSelection()
	if err != nil {
		switch {
		case errors.Is(err, segmenter.ErrEndBeforeStart), errors.Is(err, segmenter.ErrSceneTooShort):
			respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		default:
			respondError(ctx, w, http.StatusConflict, err.Error())
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, toSceneRecord(scene))
}

// Export handles POST /api/v1/trim/export: persists every confirmed scene
// and closes the session on success.
func (h TrimHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, "trim session not found")
		return
	}

	var exported []sceneRecord
	err = session.ExportScenes(func(scenes []models.Scene) error {
		// One transaction for the whole list: a failure persists nothing,
		// so retrying the export cannot collide with its own output.
		if err := h.Scenes.CreateBatch(ctx, scenes); err != nil {
			return err
		}
		for _, scene := range scenes {
			exported = append(exported, toSceneRecord(scene))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, segmenter.ErrNoScenes) {
			respondError(ctx, w, http.StatusUnprocessableEntity, "no confirmed scenes to export")
			return
		}
		logging.FromContext(ctx).Error("scene export failed", "sessionId", req.SessionID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to export scenes")
		return
	}

	h.Sessions.Close(req.SessionID)
	respondJSON(ctx, w, http.StatusOK, map[string]any{"scenes": exported})
}

// Exit handles POST /api/v1/trim/exit: abandons the session, discarding
// unconfirmed state.
func (h TrimHandler) Exit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Sessions.Close(req.SessionID)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "exited"})
}

func (h TrimHandler) session(ctx context.Context, w http.ResponseWriter, r *http.Request) (*segmenter.Session, bool) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	session, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, "trim session not found")
		return nil, false
	}
	return session, true
}
