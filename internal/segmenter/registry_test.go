package segmenter

import (
	"errors"
	"testing"

	"github.com/scenescore/backend/internal/models"
)

func TestOpenEntersTrimImmediately(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", nil, 0)

	if session.ID == "" {
		t.Fatal("expected a session id")
	}
	if session.VideoID != "video-1" {
		t.Fatalf("unexpected video id %q", session.VideoID)
	}
	if session.State() != StateTrimActive {
		t.Fatalf("expected trim_active, got %v", session.State())
	}
}

func TestGetReturnsOpenSession(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", nil, 0)

	got, err := r.Get(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != session {
		t.Fatal("expected the same session instance")
	}
}

func TestGetUnknownSession(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCloseRemovesAndResetsSession(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", nil, 0)

	r.Close(session.ID)

	if _, err := r.Get(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
	if session.State() != StateIdle {
		t.Fatalf("expected closed session to be idle, got %v", session.State())
	}
}

func TestSessionDurationChainPrefersRecorded(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", func() float64 { return 120 }, 30)
	session.ReportLiveDuration(90)

	got, err := session.SeekPercent(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 60 {
		t.Fatalf("expected recorded duration 120 to drive the seek, got %v", got)
	}
}

func TestSessionDurationChainFallsBackToLive(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", func() float64 { return 0 }, 30)
	session.ReportLiveDuration(90)

	got, err := session.SeekPercent(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 45 {
		t.Fatalf("expected live duration 90 to drive the seek, got %v", got)
	}
}

func TestSessionDurationChainFallsBackToProp(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", nil, 30)

	got, err := session.SeekPercent(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 15 {
		t.Fatalf("expected prop duration 30 to drive the seek, got %v", got)
	}
}

func TestSessionIgnoresNonPositiveLiveDuration(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", nil, 0)
	session.ReportLiveDuration(-1)

	if _, err := session.SeekPercent(50); !errors.Is(err, ErrNoDuration) {
		t.Fatalf("expected ErrNoDuration, got %v", err)
	}
}

func TestSessionSelectionRoundTrip(t *testing.T) {
	r := NewRegistry()
	session := r.Open("video-1", func() float64 { return 100 }, 0)

	start, err := session.StartSelection()
	if err != nil {
		t.Fatalf("start selection: %v", err)
	}
	if start != 0 {
		t.Fatalf("expected first selection to start at zero, got %v", start)
	}

	session.Seek(12)
	scene, err := session.ConfirmSelection()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if scene.VideoID != "video-1" || scene.StartTime != 0 || scene.EndTime != 12 {
		t.Fatalf("unexpected scene: %+v", scene)
	}

	var exported []models.Scene
	err = session.ExportScenes(func(scenes []models.Scene) error {
		exported = scenes
		return nil
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 1 {
		t.Fatalf("expected one exported scene, got %d", len(exported))
	}
}
