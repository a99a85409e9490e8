// Package segmenter implements the interactive trim state machine that
// converts a continuous scrub position into ordered, non-overlapping scene
// intervals over a video's duration.
package segmenter

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/scenescore/backend/internal/models"
)

// State identifies where a trim session is in its lifecycle.
type State int

const (
	// StateIdle: normal scrubbing, no trim session open.
	StateIdle State = iota
	// StateTrimActive: trim session open, not currently selecting.
	StateTrimActive
	// StateSelecting: a candidate scene start is marked and the candidate
	// end follows the scrub position.
	StateSelecting
)

func (s State) String() string {
	switch s {
	case StateTrimActive:
		return "trim_active"
	case StateSelecting:
		return "selecting"
	default:
		return "idle"
	}
}

// MinSceneDuration is the shortest confirmable scene, in seconds.
const MinSceneDuration = 0.1

var (
	// ErrTrimSessionOpen rejects EnterTrim while a session is already open.
	ErrTrimSessionOpen = errors.New("trim session already open")
	// ErrNotTrimming rejects trim verbs outside a session.
	ErrNotTrimming = errors.New("no trim session open")
	// ErrNotSelecting rejects confirm without a marked start.
	ErrNotSelecting = errors.New("no selection in progress")
	// ErrEndBeforeStart rejects a confirm whose end is not after its start.
	ErrEndBeforeStart = errors.New("scene end must be after start")
	// ErrSceneTooShort rejects a confirm below the minimum scene duration.
	ErrSceneTooShort = errors.New("scene too short")
	// ErrNoScenes rejects an export with nothing confirmed.
	ErrNoScenes = errors.New("no confirmed scenes to export")
	// ErrNoDuration indicates no duration provider yielded a usable value.
	ErrNoDuration = errors.New("video duration unavailable")
)

// DurationProvider yields one candidate for the video's authoritative
// duration, or a non-positive value when this source has none.
type DurationProvider func() float64

// Segmenter is the per-session trim state machine. It is owned by a single
// interactive session and is not safe for concurrent use; Session wraps it
// with a lock for transport-facing callers.
type Segmenter struct {
	videoID   string
	state     State
	position  float64
	start     float64
	floor     float64
	confirmed []models.Scene
	providers []DurationProvider
	newID     func() string
}

// New constructs a segmenter for the given video. Providers are consulted in
// order when a duration is needed; the first positive, finite value wins.
func New(videoID string, providers ...DurationProvider) *Segmenter {
	return &Segmenter{
		videoID:   videoID,
		providers: providers,
		newID:     uuid.NewString,
	}
}

// State reports the current machine state.
func (s *Segmenter) State() State { return s.state }

// Position reports the current (clamped) playback position in seconds.
func (s *Segmenter) Position() float64 { return s.position }

// Scenes returns a copy of the confirmed scene list.
func (s *Segmenter) Scenes() []models.Scene {
	out := make([]models.Scene, len(s.confirmed))
	copy(out, s.confirmed)
	return out
}

// Duration resolves the authoritative duration through the provider chain.
func (s *Segmenter) Duration() (float64, error) {
	for _, provide := range s.providers {
		if provide == nil {
			continue
		}
		if d := provide(); d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d) {
			return d, nil
		}
	}
	return 0, ErrNoDuration
}

// EnterTrim opens a trim session: selection list empty, playback at zero,
// next-start floor at zero.
func (s *Segmenter) EnterTrim() error {
	if s.state != StateIdle {
		return ErrTrimSessionOpen
	}
	s.state = StateTrimActive
	s.confirmed = nil
	s.position = 0
	s.start = 0
	s.floor = 0
	return nil
}

// StartSelection marks the candidate scene start at the next-start floor and
// forces playback there.
func (s *Segmenter) StartSelection() error {
	if s.state != StateTrimActive {
		return ErrNotTrimming
	}
	s.start = s.floor
	s.position = s.floor
	s.state = StateSelecting
	return nil
}

// Seek moves the playback position, clamped by the current state: while
// selecting the end marker cannot move before the marked start, and while
// trim-active a new scene cannot begin before the end of the last confirmed
// one. It returns the effective position.
func (s *Segmenter) Seek(position float64) float64 {
	if position < 0 {
		position = 0
	}
	switch s.state {
	case StateSelecting:
		if position < s.start {
			position = s.start
		}
	case StateTrimActive:
		if position < s.floor {
			position = s.floor
		}
	}
	s.position = position
	return s.position
}

// SeekPercent converts a 0–100 scrub percentage through the duration chain
// and seeks there. The single operation fails soft when no duration source
// is available.
func (s *Segmenter) SeekPercent(percent float64) (float64, error) {
	duration, err := s.Duration()
	if err != nil {
		return s.position, err
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return s.Seek(duration * percent / 100), nil
}

// ConfirmSelection closes the open selection as a Scene. The scene's end is
// the current playback position; confirmation advances the next-start floor
// so later scenes can never overlap earlier ones. On any rejection no state
// changes.
func (s *Segmenter) ConfirmSelection() (models.Scene, error) {
	if s.state != StateSelecting {
		return models.Scene{}, ErrNotSelecting
	}
	if s.position <= s.start {
		return models.Scene{}, ErrEndBeforeStart
	}
	if s.position-s.start < MinSceneDuration {
		return models.Scene{}, ErrSceneTooShort
	}

	scene := models.Scene{
		ID:        s.newID(),
		VideoID:   s.videoID,
		StartTime: s.start,
		EndTime:   s.position,
	}
	s.confirmed = append(s.confirmed, scene)
	s.floor = s.position
	s.state = StateTrimActive
	return scene, nil
}

// ExportScenes hands the confirmed list to the exporter and, on success,
// closes the session. A failed export leaves the session intact so the user
// can retry.
func (s *Segmenter) ExportScenes(export func([]models.Scene) error) error {
	if s.state != StateTrimActive {
		return ErrNotTrimming
	}
	if len(s.confirmed) == 0 {
		return ErrNoScenes
	}
	if err := export(s.Scenes()); err != nil {
		return err
	}
	s.reset()
	return nil
}

// Exit abandons the trim session, discarding all unconfirmed selection
// state. Scenes already exported and persisted are unaffected.
func (s *Segmenter) Exit() {
	s.reset()
}

func (s *Segmenter) reset() {
	s.state = StateIdle
	s.confirmed = nil
	s.start = 0
	s.floor = 0
}
