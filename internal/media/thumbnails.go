package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	thumbnailWidth  = 160
	thumbnailHeight = 90
)

// ThumbnailResult is one successfully extracted frame. Index is the position
// of the timestamp in the original input list, which also determines the
// filename, so a partially failed batch leaves gaps in the numbering rather
// than renumbering the survivors.
type ThumbnailResult struct {
	Index     int
	Timestamp float64
	Filename  string
	Path      string
}

// ThumbnailGenerator extracts fixed-size still frames, one engine invocation
// per timestamp. Items fail independently: an engine error or a missing
// output file skips that timestamp and the batch carries on.
type ThumbnailGenerator struct {
	engine  *Engine
	logger  *slog.Logger
	timeout time.Duration
}

// NewThumbnailGenerator constructs a generator around the given engine.
func NewThumbnailGenerator(engine *Engine, timeout time.Duration, logger *slog.Logger) *ThumbnailGenerator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbnailGenerator{engine: engine, logger: logger, timeout: timeout}
}

// Generate extracts one frame per timestamp into outputDir and returns the
// surviving results plus the number of failed items. Filenames are assigned
// from the input index before any work starts, so ordering can never race.
func (g *ThumbnailGenerator) Generate(ctx context.Context, videoPath, outputDir string, timestamps []float64) ([]ThumbnailResult, int) {
	results := make([]ThumbnailResult, 0, len(timestamps))
	failures := 0

	for i, ts := range timestamps {
		filename := ThumbnailFilename(i)
		outPath := filepath.Join(outputDir, filename)

		_, err := g.engine.Exec(ctx, g.timeout,
			"-ss", formatSeconds(ts),
			"-i", videoPath,
			"-vframes", "1",
			"-s", fmt.Sprintf("%dx%d", thumbnailWidth, thumbnailHeight),
			"-q:v", "2",
			outPath,
		)
		if err != nil {
			g.logger.Warn("thumbnail extraction failed",
				"video", videoPath, "index", i, "timestamp", ts, "error", err)
			failures++
			continue
		}

		// The engine can exit cleanly without writing a frame, e.g. when
		// the seek lands past the last keyframe.
		if _, err := os.Stat(outPath); err != nil {
			g.logger.Warn("thumbnail output missing after extraction",
				"video", videoPath, "index", i, "timestamp", ts, "error", err)
			failures++
			continue
		}

		results = append(results, ThumbnailResult{
			Index:     i,
			Timestamp: ts,
			Filename:  filename,
			Path:      outPath,
		})
	}

	return results, failures
}

// ThumbnailFilename returns the deterministic name for the timestamp at the
// given input-list position.
func ThumbnailFilename(index int) string {
	return fmt.Sprintf("thumb_%03d.jpg", index)
}
