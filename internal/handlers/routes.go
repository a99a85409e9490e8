package handlers

import (
	"net/http"

	"github.com/scenescore/backend/internal/segmenter"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	thumbnails := ThumbnailHandler{Timelines: deps.Timelines}
	scenes := SceneHandler{Scenes: deps.Scenes}
	trim := TrimHandler{Sessions: deps.TrimSessions, Timelines: deps.Timelines, Scenes: deps.Scenes}
	previews := PreviewHandler{Previews: deps.Previews, Catalog: deps.Audio, Limiter: deps.MixLimiter}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/thumbnails", thumbnails.Handle)
	mux.HandleFunc("/api/v1/scenes", scenes.Handle)
	mux.HandleFunc("/api/v1/trim/enter", trim.Enter)
	mux.HandleFunc("/api/v1/trim/seek", trim.Seek)
	mux.HandleFunc("/api/v1/trim/select", trim.Select)
	mux.HandleFunc("/api/v1/trim/confirm", trim.Confirm)
	mux.HandleFunc("/api/v1/trim/export", trim.Export)
	mux.HandleFunc("/api/v1/trim/exit", trim.Exit)
	mux.HandleFunc("/api/v1/previews", previews.Mix)
	mux.HandleFunc("/api/v1/previews/sources", previews.Sources)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Timelines    TimelineService
	Scenes       SceneStore
	Audio        AudioCatalog
	Previews     PreviewMixer
	TrimSessions *segmenter.Registry
	MixLimiter   RateLimiter
}
