// Package timeline orchestrates thumbnail-timeline construction for a
// video: cache check, duration probe, scene-change detection, frame
// extraction, artifact upload, and persistence.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/scenescore/backend/internal/cache"
	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/media"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/storage"
)

// ErrNoThumbnails indicates every timestamp in the batch failed, so no
// timeline could be produced at all.
var ErrNoThumbnails = errors.New("no thumbnails could be generated")

// Prober recovers timing information from a video.
type Prober interface {
	ProbeDuration(ctx context.Context, videoPath string) float64
	DetectSceneChanges(ctx context.Context, videoPath string, duration float64) []float64
}

// Generator extracts still frames for a set of timestamps.
type Generator interface {
	Generate(ctx context.Context, videoPath, outputDir string, timestamps []float64) ([]media.ThumbnailResult, int)
}

// ThumbnailStore persists timeline records.
type ThumbnailStore interface {
	CreateBatch(ctx context.Context, thumbs []models.Thumbnail) error
	ListByVideo(ctx context.Context, videoID string) ([]models.Thumbnail, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}

// TimelineCache short-circuits timeline construction for known videos.
type TimelineCache interface {
	GetTimeline(ctx context.Context, videoID string) ([]models.Thumbnail, error)
	SetTimeline(ctx context.Context, videoID string, thumbs []models.Thumbnail) error
	InvalidateTimeline(ctx context.Context, videoID string) error
}

// ObjectStore uploads thumbnail artifacts.
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// Service builds and serves per-video thumbnail timelines. A timeline is
// created once per video on first request and is immutable afterwards,
// except for full regeneration.
type Service struct {
	probe   Prober
	thumbs  Generator
	store   ThumbnailStore
	cache   TimelineCache
	objects ObjectStore
	logger  *slog.Logger

	// Durations remembers probed durations so trim sessions can resolve
	// the authoritative duration without re-probing.
	durations *durationCache
}

// NewService wires the timeline pipeline together.
func NewService(probe Prober, thumbs Generator, store ThumbnailStore, timelineCache TimelineCache, objects ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		probe:     probe,
		thumbs:    thumbs,
		store:     store,
		cache:     timelineCache,
		objects:   objects,
		logger:    logger,
		durations: newDurationCache(),
	}
}

// Timeline returns the video's thumbnail set, building it on first request.
func (s *Service) Timeline(ctx context.Context, videoID, videoPath string) ([]models.Thumbnail, error) {
	existing, err := s.Cached(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	return s.build(ctx, videoID, videoPath)
}

// Cached returns the already-built timeline, or an empty list when none
// exists. It never triggers construction.
func (s *Service) Cached(ctx context.Context, videoID string) ([]models.Thumbnail, error) {
	if cached, err := s.cache.GetTimeline(ctx, videoID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("timeline cache lookup failed", "videoId", videoID, "error", err)
	}

	existing, err := s.store.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails for %s: %w", videoID, err)
	}
	if len(existing) > 0 {
		s.cacheTimeline(ctx, videoID, existing)
	}
	return existing, nil
}

// Regenerate discards the video's timeline and builds a fresh one.
func (s *Service) Regenerate(ctx context.Context, videoID, videoPath string) ([]models.Thumbnail, error) {
	if err := s.store.DeleteByVideo(ctx, videoID); err != nil {
		return nil, fmt.Errorf("drop thumbnails for %s: %w", videoID, err)
	}
	if err := s.cache.InvalidateTimeline(ctx, videoID); err != nil {
		s.logger.Warn("timeline cache invalidation failed", "videoId", videoID, "error", err)
	}
	return s.build(ctx, videoID, videoPath)
}

// Duration reports the last probed duration for the video, or zero when the
// video has not been probed yet.
func (s *Service) Duration(videoID string) float64 {
	return s.durations.get(videoID)
}

func (s *Service) build(ctx context.Context, videoID, videoPath string) ([]models.Thumbnail, error) {
	ctx, span := logging.StartSpan(ctx, "timeline.build")
	defer span.End()

	sessionID := uuid.NewString()
	workDir := filepath.Join(os.TempDir(), "scenescore-"+sessionID)
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	defer s.cleanup(workDir)

	duration := s.probe.ProbeDuration(ctx, videoPath)
	s.durations.set(videoID, duration)

	timestamps := s.probe.DetectSceneChanges(ctx, videoPath, duration)

	results, failed := s.thumbs.Generate(ctx, videoPath, workDir, timestamps)
	if failed > 0 {
		s.logger.Warn("thumbnail batch partially failed",
			"videoId", videoID, "requested", len(timestamps), "failed", failed)
	}
	if len(results) == 0 {
		return nil, ErrNoThumbnails
	}

	now := time.Now().UTC()
	thumbs := make([]models.Thumbnail, 0, len(results))
	for _, res := range results {
		key, err := s.upload(ctx, videoID, res)
		if err != nil {
			// Same partial-failure policy as extraction: one lost
			// upload shrinks the timeline, it does not abort it.
			s.logger.Warn("thumbnail upload failed",
				"videoId", videoID, "index", res.Index, "error", err)
			continue
		}
		thumbs = append(thumbs, models.Thumbnail{
			ID:         uuid.NewString(),
			VideoID:    videoID,
			SessionID:  sessionID,
			Index:      res.Index,
			Timestamp:  res.Timestamp,
			StorageKey: key,
			CreatedAt:  now,
		})
	}
	if len(thumbs) == 0 {
		return nil, ErrNoThumbnails
	}

	if err := s.store.CreateBatch(ctx, thumbs); err != nil {
		return nil, fmt.Errorf("persist timeline for %s: %w", videoID, err)
	}
	s.cacheTimeline(ctx, videoID, thumbs)

	return thumbs, nil
}

func (s *Service) upload(ctx context.Context, videoID string, res media.ThumbnailResult) (string, error) {
	f, err := os.Open(res.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key, err := storage.ContentKey(path.Join("thumbnails", videoID), ".jpg", f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return s.objects.Save(ctx, key, f, "image/jpeg")
}

func (s *Service) cacheTimeline(ctx context.Context, videoID string, thumbs []models.Thumbnail) {
	if err := s.cache.SetTimeline(ctx, videoID, thumbs); err != nil {
		s.logger.Warn("timeline cache store failed", "videoId", videoID, "error", err)
	}
}

func (s *Service) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		// Best effort; a leaked temp directory is not worth failing for.
		s.logger.Warn("working directory cleanup failed", "dir", dir, "error", err)
	}
}
