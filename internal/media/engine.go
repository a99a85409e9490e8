// Package media drives the external decode/encode engine (ffmpeg) for the
// timeline pipeline: duration and scene-change probing, thumbnail
// extraction, and preview audio mixing. Timing information is recovered by
// pattern-matching the engine's diagnostic stream, so every scrape lives
// behind this package and nothing upstream depends on the exact text format.
package media

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes the engine binary and returns its combined output.
// The engine writes all diagnostics to stderr, so combined output is the
// stream the parsers scan.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Engine invokes the media engine as a subprocess. The binary path is an
// explicit configuration value, never discovered ad hoc, so tests and
// parallel deployments can point at different builds.
type Engine struct {
	Binary string
	Run    CommandRunner
}

// NewEngine constructs an Engine shelling out to the given binary.
func NewEngine(binary string) *Engine {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Engine{
		Binary: binary,
		Run:    defaultCommandRunner,
	}
}

// Exec runs one engine invocation with the given timeout and returns the
// diagnostic text. The text is returned even when the subprocess fails,
// because useful records often precede the failure.
func (e *Engine) Exec(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	if e.Run == nil {
		e.Run = defaultCommandRunner
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	full := append([]string{"-hide_banner", "-y"}, args...)
	out, err := e.Run(ctx, e.Binary, full...)
	return string(out), err
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// formatSeconds renders a timestamp the way the engine expects offsets.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
