package repositories

import (
	"context"

	"github.com/scenescore/backend/internal/models"
)

// AudioRepository exposes data access for generated audio artifacts and
// mixed previews.
type AudioRepository interface {
	CreateVariation(ctx context.Context, variation models.AudioVariation) error
	GetVariation(ctx context.Context, id string) (models.AudioVariation, error)
	ListVariationsByScene(ctx context.Context, sceneID string) ([]models.AudioVariation, error)

	CreateEffect(ctx context.Context, effect models.SoundEffect) error
	GetEffect(ctx context.Context, id string) (models.SoundEffect, error)
	ListEffectsByScene(ctx context.Context, sceneID string) ([]models.SoundEffect, error)

	CreatePreview(ctx context.Context, preview models.PreviewTrack) error
	ListPreviewsByScene(ctx context.Context, sceneID string) ([]models.PreviewTrack, error)
}
