package repositories

import (
	"context"

	"github.com/scenescore/backend/internal/models"
)

// ThumbnailRepository exposes data access for scene-timeline thumbnails.
type ThumbnailRepository interface {
	CreateBatch(ctx context.Context, thumbs []models.Thumbnail) error
	ListByVideo(ctx context.Context, videoID string) ([]models.Thumbnail, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}
