package app

import (
	"log/slog"
	"time"

	"github.com/scenescore/backend/internal/cache"
	"github.com/scenescore/backend/internal/config"
	"github.com/scenescore/backend/internal/db"
	"github.com/scenescore/backend/internal/handlers"
	"github.com/scenescore/backend/internal/media"
	"github.com/scenescore/backend/internal/middleware"
	"github.com/scenescore/backend/internal/preview"
	"github.com/scenescore/backend/internal/repositories"
	"github.com/scenescore/backend/internal/segmenter"
	"github.com/scenescore/backend/internal/storage"
	"github.com/scenescore/backend/internal/timeline"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, objects *storage.S3Storage, cfg config.Config, logger *slog.Logger) handlers.Dependencies {
	engine := media.NewEngine(cfg.Media.EnginePath)
	probe := media.NewProbe(engine, media.ProbeConfig{
		Timeout:        cfg.Media.ProbeTimeout,
		SceneThreshold: cfg.Media.SceneThreshold,
		DedupeWindow:   cfg.Media.SceneDedupeWindow,
	}, logger)
	thumbs := media.NewThumbnailGenerator(engine, cfg.Media.ThumbnailTimeout, logger)
	mixer := media.NewMixer(engine, cfg.Media.MixTimeout, logger)

	thumbnailRepo := repositories.NewPostgresThumbnailRepository(pool)
	sceneRepo := repositories.NewPostgresSceneRepository(pool)
	audioRepo := repositories.NewPostgresAudioRepository(pool)

	timelineCache := cache.NewTimelineCache(cfg.RedisAddr, cfg.TimelineCacheTTL)
	timelines := timeline.NewService(probe, thumbs, thumbnailRepo, timelineCache, objects, logger)
	previews := preview.NewService(sceneRepo, audioRepo, objects, mixer, logger)

	return handlers.Dependencies{
		Timelines:    timelines,
		Scenes:       sceneRepo,
		Audio:        audioRepo,
		Previews:     previews,
		TrimSessions: segmenter.NewRegistry(),
		MixLimiter:   middleware.NewIPRateLimiter(cfg.MixRateLimit, time.Minute, cfg.MixRateBurst, 10*time.Minute),
	}
}
