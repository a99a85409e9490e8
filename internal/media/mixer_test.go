package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestMixer(engine *Engine) *Mixer {
	return NewMixer(engine, time.Second, testLogger())
}

func TestMixRejectsEmptyRequestBeforeSubprocess(t *testing.T) {
	invoked := false
	engine := &Engine{
		Binary: "ffmpeg",
		Run: func(context.Context, string, ...string) ([]byte, error) {
			invoked = true
			return nil, nil
		},
	}
	m := newTestMixer(engine)

	err := m.Mix(context.Background(), MixRequest{DurationSeconds: 10, OutputPath: "out.mp3"})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if invoked {
		t.Fatal("engine must not run for an empty source list")
	}
}

func TestMixRejectsNonPositiveDuration(t *testing.T) {
	m := newTestMixer(fakeEngine("", nil))

	err := m.Mix(context.Background(), MixRequest{
		MusicPath:       "music.mp3",
		DurationSeconds: 0,
		OutputPath:      "out.mp3",
	})
	if err == nil || errors.Is(err, ErrNoSources) {
		t.Fatalf("expected duration validation error, got %v", err)
	}
}

func captureArgs(captured *[]string) *Engine {
	return &Engine{
		Binary: "ffmpeg",
		Run: func(_ context.Context, _ string, args ...string) ([]byte, error) {
			*captured = append([]string(nil), args...)
			return nil, nil
		},
	}
}

func TestMixMusicOnlyIsPlainTranscode(t *testing.T) {
	var args []string
	m := newTestMixer(captureArgs(&args))

	err := m.Mix(context.Background(), MixRequest{
		MusicPath:       "music.mp3",
		DurationSeconds: 12.5,
		OutputPath:      "out.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-filter_complex") {
		t.Fatalf("music-only mix must not build a filter graph: %v", args)
	}
	if !strings.Contains(joined, "-t 12.500") {
		t.Fatalf("expected hard duration clip in args: %v", args)
	}
	if !strings.Contains(joined, "-acodec libmp3lame") || !strings.Contains(joined, "-b:a 192k") {
		t.Fatalf("expected mp3 encode settings in args: %v", args)
	}
}

func TestMixEffectsOnlyUsesSilentBase(t *testing.T) {
	var args []string
	m := newTestMixer(captureArgs(&args))

	err := m.Mix(context.Background(), MixRequest{
		Effects:         []EffectInput{{Path: "hit.wav", OnsetMs: 1500}},
		DurationSeconds: 8,
		OutputPath:      "out.mp3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "anullsrc=r=44100:cl=stereo") {
		t.Fatalf("expected silent base input for effects-only mix: %v", args)
	}
	if !strings.Contains(joined, "-map [mix]") {
		t.Fatalf("expected mix stream mapping: %v", args)
	}
}

func TestBuildMixFilterDelaysAndSums(t *testing.T) {
	got := BuildMixFilter([]EffectInput{
		{Path: "a.wav", OnsetMs: 1500.7},
		{Path: "b.wav", OnsetMs: 250},
	})
	want := "[1:a]adelay=1500|1500[d0];[2:a]adelay=250|250[d1];" +
		"[0:a][d0][d1]amix=inputs=3:duration=first:dropout_transition=2[mix]"
	if got != want {
		t.Fatalf("filter graph mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestBuildMixFilterClampsNegativeOnset(t *testing.T) {
	got := BuildMixFilter([]EffectInput{{Path: "a.wav", OnsetMs: -10}})
	if !strings.Contains(got, "adelay=0|0") {
		t.Fatalf("expected negative onset clamped to zero, got %q", got)
	}
}

func TestMixWrapsEngineFailure(t *testing.T) {
	engineErr := errors.New("exit status 1")
	m := newTestMixer(fakeEngine("…\nError while filtering: invalid argument\n", engineErr))

	err := m.Mix(context.Background(), MixRequest{
		MusicPath:       "music.mp3",
		DurationSeconds: 5,
		OutputPath:      "out.mp3",
	})

	var mixErr *MixError
	if !errors.As(err, &mixErr) {
		t.Fatalf("expected *MixError, got %v", err)
	}
	if !errors.Is(err, engineErr) {
		t.Fatal("expected MixError to unwrap to the engine error")
	}
	if !strings.Contains(mixErr.Output, "invalid argument") {
		t.Fatalf("expected diagnostic tail in MixError, got %q", mixErr.Output)
	}
}

func TestTailKeepsShortStringsIntact(t *testing.T) {
	if got := tail("  short  ", 400); got != "short" {
		t.Fatalf("expected trimmed string, got %q", got)
	}
	long := strings.Repeat("x", 500)
	if got := tail(long, 400); len(got) != 400 {
		t.Fatalf("expected 400-byte tail, got %d bytes", len(got))
	}
}
