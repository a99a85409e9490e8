package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/timeline"
)

// ThumbnailHandler serves scene-timeline thumbnails for uploaded videos.
type ThumbnailHandler struct {
	Timelines TimelineService
}

type thumbnailRequest struct {
	VideoID    string `json:"videoId"`
	VideoPath  string `json:"videoPath"`
	Regenerate bool   `json:"regenerate"`
}

type thumbnailResponse struct {
	VideoID    string            `json:"videoId"`
	Thumbnails []thumbnailRecord `json:"thumbnails"`
}

type thumbnailRecord struct {
	Index      int     `json:"index"`
	Timestamp  float64 `json:"timestamp"`
	StorageKey string  `json:"storageKey"`
}

// Handle dispatches /api/v1/thumbnails by method.
func (h ThumbnailHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generate(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// generate handles POST /api/v1/thumbnails: build (or return) the video's
// scene timeline.
func (h ThumbnailHandler) generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Timelines == nil {
		logger.Error("timeline service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "timeline service unavailable")
		return
	}

	var req thumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	req.VideoPath = strings.TrimSpace(req.VideoPath)
	if req.VideoID == "" || req.VideoPath == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId and videoPath are required")
		return
	}

	var (
		thumbs []models.Thumbnail
		err    error
	)
	if req.Regenerate {
		thumbs, err = h.Timelines.Regenerate(ctx, req.VideoID, req.VideoPath)
	} else {
		thumbs, err = h.Timelines.Timeline(ctx, req.VideoID, req.VideoPath)
	}
	if err != nil {
		if errors.Is(err, timeline.ErrNoThumbnails) {
			respondError(ctx, w, http.StatusUnprocessableEntity, "no thumbnails could be generated")
			return
		}
		logger.Error("timeline construction failed", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to build timeline")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toThumbnailResponse(req.VideoID, thumbs))
}

// list handles GET /api/v1/thumbnails?videoId=...
func (h ThumbnailHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	// A timeline that does not exist yet simply lists as empty; GET never
	// triggers construction.
	thumbs, err := h.Timelines.Cached(ctx, videoID)
	if err != nil {
		logging.FromContext(ctx).Error("timeline lookup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list timeline")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toThumbnailResponse(videoID, thumbs))
}

func toThumbnailResponse(videoID string, thumbs []models.Thumbnail) thumbnailResponse {
	resp := thumbnailResponse{VideoID: videoID, Thumbnails: make([]thumbnailRecord, 0, len(thumbs))}
	for _, t := range thumbs {
		resp.Thumbnails = append(resp.Thumbnails, thumbnailRecord{
			Index:      t.Index,
			Timestamp:  t.Timestamp,
			StorageKey: t.StorageKey,
		})
	}
	return resp
}
