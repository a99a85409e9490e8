package segmenter

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/scenescore/backend/internal/models"
)

// ErrSessionNotFound indicates an unknown or already-closed trim session.
var ErrSessionNotFound = errors.New("trim session not found")

// Session wraps a Segmenter for one interactive client, serialising access
// and exposing the live-duration slot the client reports on each request.
type Session struct {
	ID      string
	VideoID string

	mu   sync.Mutex
	seg  *Segmenter
	live float64
}

// ReportLiveDuration records the duration the client's playback element
// currently reports. It participates in the duration provider chain.
func (s *Session) ReportLiveDuration(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.live = d
	}
}

// State reports the underlying machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.State()
}

// Seek forwards to Segmenter.Seek.
func (s *Session) Seek(position float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.Seek(position)
}

// SeekPercent forwards to Segmenter.SeekPercent.
func (s *Session) SeekPercent(percent float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.SeekPercent(percent)
}

// StartSelection forwards to Segmenter.StartSelection and returns the
// captured scene start.
func (s *Session) StartSelection() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seg.StartSelection(); err != nil {
		return 0, err
	}
	return s.seg.Position(), nil
}

// ConfirmSelection forwards to Segmenter.ConfirmSelection.
func (s *Session) ConfirmSelection() (models.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.ConfirmSelection()
}

// ExportScenes forwards to Segmenter.ExportScenes.
func (s *Session) ExportScenes(export func([]models.Scene) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.ExportScenes(export)
}

// Scenes returns the confirmed list so far.
func (s *Session) Scenes() []models.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seg.Scenes()
}

// Exit abandons the session's trim state.
func (s *Session) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seg.Exit()
}

// Registry tracks open trim sessions by id. Each session is owned by the one
// interactive client that opened it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates a session for the video and immediately enters trim mode.
// The duration chain is: recorded (probe/cache) duration, the client's live
// playback duration, then the externally supplied prop value.
func (r *Registry) Open(videoID string, recorded DurationProvider, prop float64) *Session {
	session := &Session{
		ID:      uuid.NewString(),
		VideoID: videoID,
	}

	liveProvider := func() float64 {
		return session.live
	}
	propProvider := func() float64 {
		return prop
	}

	session.seg = New(videoID, recorded, liveProvider, propProvider)
	// A fresh segmenter is always Idle, so EnterTrim cannot fail here.
	_ = session.seg.EnterTrim()

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session
}

// Get looks up an open session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close removes the session from the registry and discards its trim state.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		session.Exit()
	}
}
