package repositories

import (
	"context"

	"github.com/scenescore/backend/internal/models"
)

// SceneRepository exposes data access for confirmed scenes.
type SceneRepository interface {
	Create(ctx context.Context, scene models.Scene) error
	GetByID(ctx context.Context, id string) (models.Scene, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Scene, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideo(ctx context.Context, videoID string) error
}
