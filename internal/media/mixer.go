package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

const (
	mixBitrate    = "192k"
	mixSampleRate = 44100

	// dropoutTransition smooths the level change when a short effect
	// stream ends before the base track.
	dropoutTransition = 2
)

// ErrNoSources indicates a mix was requested with neither music nor effects.
// This is a caller precondition failure; no subprocess is ever started.
var ErrNoSources = errors.New("audio mix requires at least one source")

// MixError reports a failed mixing subprocess along with the tail of the
// engine's diagnostic output.
type MixError struct {
	Output string
	Err    error
}

func (e *MixError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("audio mix failed: %v", e.Err)
	}
	return fmt.Sprintf("audio mix failed: %v: %s", e.Err, e.Output)
}

func (e *MixError) Unwrap() error { return e.Err }

// EffectInput is one sound effect placed at an onset offset from the start
// of the output.
type EffectInput struct {
	Path    string
	OnsetMs float64
}

// MixRequest describes one preview mix: an optional background music file,
// zero or more timestamped effects, and a hard output duration.
type MixRequest struct {
	MusicPath       string
	Effects         []EffectInput
	DurationSeconds float64
	OutputPath      string
}

// Mixer builds and executes the delay-and-mix filter graph producing a
// single MP3 clipped to the requested duration.
type Mixer struct {
	engine  *Engine
	logger  *slog.Logger
	timeout time.Duration
}

// NewMixer constructs a Mixer around the given engine.
func NewMixer(engine *Engine, timeout time.Duration, logger *slog.Logger) *Mixer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{engine: engine, logger: logger, timeout: timeout}
}

// Mix produces req.OutputPath. Onsets are not validated against the
// duration: an effect delayed past the end is simply inaudible in the
// clipped output.
func (m *Mixer) Mix(ctx context.Context, req MixRequest) error {
	if req.MusicPath == "" && len(req.Effects) == 0 {
		return ErrNoSources
	}
	if req.DurationSeconds <= 0 {
		return fmt.Errorf("audio mix: invalid duration %v", req.DurationSeconds)
	}

	args := m.buildArgs(req)

	out, err := m.engine.Exec(ctx, m.timeout, args...)
	if err != nil {
		return &MixError{Output: tail(out, 400), Err: err}
	}

	m.logger.Info("audio mix complete",
		"output", req.OutputPath,
		"duration", req.DurationSeconds,
		"effects", len(req.Effects),
		"hasMusic", req.MusicPath != "")
	return nil
}

func (m *Mixer) buildArgs(req MixRequest) []string {
	durArg := formatSeconds(req.DurationSeconds)

	// Music only: plain transcode, no filter graph needed.
	if len(req.Effects) == 0 {
		return []string{
			"-i", req.MusicPath,
			"-vn",
			"-acodec", "libmp3lame",
			"-b:a", mixBitrate,
			"-t", durArg,
			req.OutputPath,
		}
	}

	var args []string
	if req.MusicPath != "" {
		args = append(args, "-i", req.MusicPath)
	} else {
		// Effects only: synthesize a silent base track as input 0 so the
		// mix duration is still governed by the base stream.
		args = append(args,
			"-f", "lavfi",
			"-t", durArg,
			"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", mixSampleRate),
		)
	}

	for _, fx := range req.Effects {
		args = append(args, "-i", fx.Path)
	}

	args = append(args,
		"-filter_complex", BuildMixFilter(req.Effects),
		"-map", "[mix]",
		"-acodec", "libmp3lame",
		"-b:a", mixBitrate,
		"-t", durArg,
		req.OutputPath,
	)
	return args
}

// BuildMixFilter renders the filter graph: each effect input is delayed to
// its onset on both stereo channels, then every stream is summed with the
// base. duration=first keeps the base stream in charge of output length.
func BuildMixFilter(effects []EffectInput) string {
	var b strings.Builder

	for i, fx := range effects {
		delay := int64(math.Floor(fx.OnsetMs))
		if delay < 0 {
			delay = 0
		}
		fmt.Fprintf(&b, "[%d:a]adelay=%d|%d[d%d];", i+1, delay, delay, i)
	}

	b.WriteString("[0:a]")
	for i := range effects {
		fmt.Fprintf(&b, "[d%d]", i)
	}
	fmt.Fprintf(&b, "amix=inputs=%d:duration=first:dropout_transition=%d[mix]",
		len(effects)+1, dropoutTransition)

	return b.String()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
