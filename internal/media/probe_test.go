package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeEngine(output string, err error) *Engine {
	return &Engine{
		Binary: "ffmpeg",
		Run: func(context.Context, string, ...string) ([]byte, error) {
			return []byte(output), err
		},
	}
}

func newTestProbe(engine *Engine) *Probe {
	return NewProbe(engine, ProbeConfig{
		Timeout:        time.Second,
		SceneThreshold: 0.35,
		DedupeWindow:   2 * time.Second,
	}, testLogger())
}

func TestProbeDurationParsesMetadata(t *testing.T) {
	out := "Input #0, mov,mp4\n  Duration: 00:01:30.50, start: 0.000000, bitrate: 1200 kb/s\n"
	p := newTestProbe(fakeEngine(out, errors.New("exit status 1")))

	got := p.ProbeDuration(context.Background(), "clip.mp4")
	if got != 90.5 {
		t.Fatalf("expected 90.5 seconds, got %v", got)
	}
}

func TestProbeDurationHoursAndFraction(t *testing.T) {
	out := "  Duration: 01:02:03.04, start: 0.000000\n"
	p := newTestProbe(fakeEngine(out, nil))

	got := p.ProbeDuration(context.Background(), "clip.mp4")
	want := 3723.04
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected %v seconds, got %v", want, got)
	}
}

func TestProbeDurationFallsBackToDefault(t *testing.T) {
	p := newTestProbe(fakeEngine("no usable metadata here", errors.New("exit status 1")))

	got := p.ProbeDuration(context.Background(), "clip.mp4")
	if got != DefaultDuration {
		t.Fatalf("expected default duration %v, got %v", DefaultDuration, got)
	}
}

func sceneOutput(stamps ...float64) string {
	var b strings.Builder
	for i, ts := range stamps {
		fmt.Fprintf(&b, "[Parsed_showinfo_1 @ 0x1] n:%d pts:%d pts_time:%.4f\n", i, i*512, ts)
	}
	return b.String()
}

func TestDetectSceneChangesSortedAndDeduped(t *testing.T) {
	stamps := []float64{5, 5.5, 12, 20, 20.9, 30, 33, 36, 39, 42, 45, 48, 51}
	p := newTestProbe(fakeEngine(sceneOutput(stamps...), nil))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 120)

	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("timestamps not strictly ascending: %v", got)
		}
	}
	for _, ts := range got {
		if ts <= 0 || ts >= 119 {
			t.Fatalf("timestamp %v outside (0, duration-1)", ts)
		}
	}
	// 5.5 and 20.9 fall inside the 2s window of an accepted timestamp.
	for _, ts := range got {
		if ts == 5.5 || ts == 20.9 {
			t.Fatalf("expected %v to be deduped, got %v", ts, got)
		}
	}
}

func TestDetectSceneChangesCapsAtMaxTimestamps(t *testing.T) {
	var stamps []float64
	for i := 1; i <= 40; i++ {
		stamps = append(stamps, float64(i*3))
	}
	p := newTestProbe(fakeEngine(sceneOutput(stamps...), nil))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 300)
	if len(got) != MaxTimestamps {
		t.Fatalf("expected %d timestamps, got %d", MaxTimestamps, len(got))
	}
}

func TestDetectSceneChangesEmptyFallsBackToIntervals(t *testing.T) {
	p := newTestProbe(fakeEngine("no showinfo records", errors.New("exit status 1")))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 120)
	want := IntervalTimestamps(120, MaxTimestamps)

	if len(got) != len(want) {
		t.Fatalf("expected %d interval timestamps, got %d", len(want), len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("timestamp %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDetectSceneChangesDiscardsPartialScrapeOnFailure(t *testing.T) {
	// A run that dies mid-stream still emits showinfo records for the part
	// it scanned; those must not be kept and backfilled.
	out := sceneOutput(5, 12, 20)
	p := newTestProbe(fakeEngine(out, errors.New("exit status 1")))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 120)
	want := IntervalTimestamps(120, MaxTimestamps)

	if len(got) != len(want) {
		t.Fatalf("expected %d interval timestamps, got %d", len(want), len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("timestamp %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDetectSceneChangesBackfillsSparseDetections(t *testing.T) {
	p := newTestProbe(fakeEngine(sceneOutput(10, 50), nil))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 120)

	if len(got) < minDetected {
		t.Fatalf("expected backfill to reach at least %d timestamps, got %d: %v", minDetected, len(got), got)
	}
	foundDetected := 0
	for _, ts := range got {
		if ts == 10 || ts == 50 {
			foundDetected++
		}
	}
	if foundDetected != 2 {
		t.Fatalf("expected detected timestamps to survive backfill, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("backfilled timestamps not sorted: %v", got)
		}
	}
}

func TestDetectSceneChangesIgnoresOutOfRangeStamps(t *testing.T) {
	p := newTestProbe(fakeEngine(sceneOutput(0, 119.5, 30), nil))

	got := p.DetectSceneChanges(context.Background(), "clip.mp4", 120)
	for _, ts := range got {
		if ts <= 0 || ts >= 119 {
			t.Fatalf("expected out-of-range stamps to be dropped, got %v", got)
		}
	}
}

func TestIntervalTimestampsSpacing(t *testing.T) {
	got := IntervalTimestamps(60, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 timestamps, got %d", len(got))
	}
	for i, ts := range got {
		want := 10 * float64(i+1)
		if ts != want {
			t.Fatalf("timestamp %d: expected %v, got %v", i, want, ts)
		}
	}
}

func TestIntervalTimestampsShortVideo(t *testing.T) {
	got := IntervalTimestamps(5, 20)
	for _, ts := range got {
		if ts >= 4 {
			t.Fatalf("timestamp %v breaches the end margin for a 5s video", ts)
		}
	}
	if len(got) == 0 {
		t.Fatal("expected at least one timestamp for a 5s video")
	}
}

func TestIntervalTimestampsDegenerateInputs(t *testing.T) {
	if got := IntervalTimestamps(0, 20); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := IntervalTimestamps(60, 0); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
}
