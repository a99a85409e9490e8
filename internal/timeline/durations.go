package timeline

import "sync"

// durationCache remembers the last probed duration per video. Probe output
// outranks the client's playback clock in the duration chain, so trim
// sessions consult this first.
type durationCache struct {
	mu    sync.RWMutex
	items map[string]float64
}

func newDurationCache() *durationCache {
	return &durationCache{items: make(map[string]float64)}
}

func (c *durationCache) get(videoID string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[videoID]
}

func (c *durationCache) set(videoID string, duration float64) {
	if duration <= 0 {
		return
	}
	c.mu.Lock()
	c.items[videoID] = duration
	c.mu.Unlock()
}
