// Package cache provides a Redis-backed cache for per-video thumbnail
// timelines, consulted before any engine work is scheduled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scenescore/backend/internal/models"
)

// ErrMiss indicates the timeline is not cached for the requested video.
var ErrMiss = errors.New("timeline cache miss")

// TimelineCache stores the ordered thumbnail set for a video, keyed by video
// id. A nil client degrades to a permanent miss so the cache stays optional.
type TimelineCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTimelineCache connects to the given Redis address. An empty address
// returns a cache that always misses.
func NewTimelineCache(addr string, ttl time.Duration) *TimelineCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if addr == "" {
		return &TimelineCache{ttl: ttl}
	}
	return &TimelineCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// GetTimeline returns the cached thumbnail set for the video, or ErrMiss.
func (c *TimelineCache) GetTimeline(ctx context.Context, videoID string) ([]models.Thumbnail, error) {
	if c == nil || c.client == nil {
		return nil, ErrMiss
	}

	payload, err := c.client.Get(ctx, timelineKey(videoID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("timeline cache get %s: %w", videoID, err)
	}

	var thumbs []models.Thumbnail
	if err := json.Unmarshal(payload, &thumbs); err != nil {
		return nil, fmt.Errorf("timeline cache decode %s: %w", videoID, err)
	}
	return thumbs, nil
}

// SetTimeline stores the thumbnail set for the video.
func (c *TimelineCache) SetTimeline(ctx context.Context, videoID string, thumbs []models.Thumbnail) error {
	if c == nil || c.client == nil {
		return nil
	}

	payload, err := json.Marshal(thumbs)
	if err != nil {
		return fmt.Errorf("timeline cache encode %s: %w", videoID, err)
	}

	if err := c.client.Set(ctx, timelineKey(videoID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("timeline cache set %s: %w", videoID, err)
	}
	return nil
}

// InvalidateTimeline drops the cached set, used on full regeneration.
func (c *TimelineCache) InvalidateTimeline(ctx context.Context, videoID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, timelineKey(videoID)).Err(); err != nil {
		return fmt.Errorf("timeline cache invalidate %s: %w", videoID, err)
	}
	return nil
}

func timelineKey(videoID string) string {
	return "timeline:" + videoID
}
