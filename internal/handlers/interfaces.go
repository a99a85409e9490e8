package handlers

import (
	"context"

	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/preview"
)

// TimelineService builds and serves per-video thumbnail timelines.
type TimelineService interface {
	Timeline(ctx context.Context, videoID, videoPath string) ([]models.Thumbnail, error)
	Regenerate(ctx context.Context, videoID, videoPath string) ([]models.Thumbnail, error)
	Cached(ctx context.Context, videoID string) ([]models.Thumbnail, error)
	Duration(videoID string) float64
}

// SceneStore captures persistence for confirmed scenes. CreateBatch is
// all-or-nothing so a trim export can be retried after a failure.
type SceneStore interface {
	Create(ctx context.Context, scene models.Scene) error
	CreateBatch(ctx context.Context, scenes []models.Scene) error
	ListByVideo(ctx context.Context, videoID string) ([]models.Scene, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideo(ctx context.Context, videoID string) error
}

// AudioCatalog lists the generated audio artifacts available for a scene.
type AudioCatalog interface {
	ListVariationsByScene(ctx context.Context, sceneID string) ([]models.AudioVariation, error)
	ListEffectsByScene(ctx context.Context, sceneID string) ([]models.SoundEffect, error)
	ListPreviewsByScene(ctx context.Context, sceneID string) ([]models.PreviewTrack, error)
}

// PreviewMixer produces one mixed preview per request.
type PreviewMixer interface {
	Mix(ctx context.Context, req preview.Request) (models.PreviewTrack, error)
}
