package models

import "time"

// Thumbnail is one still frame extracted from a video's scene timeline. Index
// is the position in the original timestamp list, so gaps in a timeline's
// indexes mark timestamps whose extraction failed.
type Thumbnail struct {
	ID         string
	VideoID    string
	SessionID  string
	Index      int
	Timestamp  float64
	StorageKey string
	CreatedAt  time.Time
}

// Scene is a confirmed [start,end) interval carved out of a video.
type Scene struct {
	ID        string
	VideoID   string
	ProjectID string
	StartTime float64
	EndTime   float64
	CreatedAt time.Time
}

// Duration returns the scene length in seconds.
func (s Scene) Duration() float64 {
	return s.EndTime - s.StartTime
}

// AudioVariation is a generated background music candidate for a scene. The
// storage key is content-derived and opaque to the core.
type AudioVariation struct {
	ID         string
	SceneID    string
	StorageKey string
	CreatedAt  time.Time
}

// SoundEffect is a generated effect with an onset offset, in milliseconds
// from the owning scene's start.
type SoundEffect struct {
	ID         string
	SceneID    string
	StorageKey string
	OnsetMs    int64
	CreatedAt  time.Time
}

// PreviewTrack is one mixed preview covering exactly the owning scene's
// duration.
type PreviewTrack struct {
	ID              string
	SceneID         string
	StorageKey      string
	DurationSeconds float64
	CreatedAt       time.Time
}
