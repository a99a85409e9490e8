package media

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDuration is assumed when the engine's metadata is unusable.
	// The timeline degrades to evenly spaced cut points instead of failing.
	DefaultDuration = 60.0

	// MaxTimestamps bounds the scene timeline length.
	MaxTimestamps = 20

	// minDetected is the detection count below which the gap is backfilled
	// with interval timestamps.
	minDetected = 10

	// edgeMargin keeps cut points out of the video's final second.
	edgeMargin = 1.0
)

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})\.(\d{1,2})`)
	ptsPattern      = regexp.MustCompile(`pts_time:\s*([0-9.]+)`)
)

// ProbeConfig tunes the scene-change analysis.
type ProbeConfig struct {
	Timeout time.Duration
	// SceneThreshold is the per-frame scene score above which a frame
	// counts as a cut.
	SceneThreshold float64
	// DedupeWindow is the minimum spacing between accepted timestamps.
	DedupeWindow time.Duration
}

// Probe recovers duration and scene-change timestamps from a video by
// scanning the engine's diagnostic output. Every operation degrades to a
// usable fallback; callers never see a probe error.
type Probe struct {
	engine    *Engine
	logger    *slog.Logger
	timeout   time.Duration
	threshold float64
	dedupe    float64
}

// NewProbe constructs a Probe around the given engine.
func NewProbe(engine *Engine, cfg ProbeConfig, logger *slog.Logger) *Probe {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SceneThreshold <= 0 {
		cfg.SceneThreshold = 0.35
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		engine:    engine,
		logger:    logger,
		timeout:   cfg.Timeout,
		threshold: cfg.SceneThreshold,
		dedupe:    cfg.DedupeWindow.Seconds(),
	}
}

// ProbeDuration analyzes the video and returns its duration in seconds.
// When the engine fails or the duration record is absent the fixed default
// is returned instead.
func (p *Probe) ProbeDuration(ctx context.Context, videoPath string) float64 {
	out, err := p.engine.Exec(ctx, p.timeout,
		"-i", videoPath,
		"-f", "null", "-",
	)

	if d, ok := parseDuration(out); ok {
		return d
	}

	p.logger.Warn("duration probe degraded to default",
		"video", videoPath, "default", DefaultDuration, "error", err)
	return DefaultDuration
}

// DetectSceneChanges runs the scene-score filter and returns candidate cut
// timestamps: sorted ascending, each in (0, duration-1), spaced at least the
// dedupe window apart, at most MaxTimestamps long. A failed engine run or an
// empty detection degrades to evenly spaced interval timestamps; a run that
// dies mid-stream may have scanned only part of the video, so its partial
// records are discarded rather than backfilled.
func (p *Probe) DetectSceneChanges(ctx context.Context, videoPath string, duration float64) []float64 {
	out, err := p.engine.Exec(ctx, p.timeout,
		"-i", videoPath,
		"-vf", fmt.Sprintf("select='gt(scene,%.2f)',showinfo", p.threshold),
		"-f", "null", "-",
	)
	if err != nil {
		p.logger.Warn("scene detection failed, using interval fallback",
			"video", videoPath, "error", err)
		return IntervalTimestamps(duration, MaxTimestamps)
	}

	found := p.parsePresentationTimes(out, duration)
	if len(found) == 0 {
		return IntervalTimestamps(duration, MaxTimestamps)
	}

	if len(found) < minDetected {
		found = p.backfill(found, duration, MaxTimestamps-len(found))
	}

	sort.Float64s(found)
	if len(found) > MaxTimestamps {
		found = found[:MaxTimestamps]
	}
	return found
}

// parsePresentationTimes scans diagnostic lines for pts_time records. It
// stops once the timeline cap has been reached; scanning the remainder of
// the stream would only cost time.
func (p *Probe) parsePresentationTimes(out string, duration float64) []float64 {
	var stamps []float64

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		m := ptsPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		t, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if t <= 0 || t >= duration-edgeMargin {
			continue
		}
		if len(stamps) > 0 && t-stamps[len(stamps)-1] < p.dedupe {
			continue
		}
		stamps = append(stamps, t)
		if len(stamps) == MaxTimestamps {
			break
		}
	}

	return stamps
}

// backfill adds up to count evenly spaced timestamps, skipping candidates
// within the dedupe window of an already-accepted one.
func (p *Probe) backfill(accepted []float64, duration float64, count int) []float64 {
	for _, candidate := range IntervalTimestamps(duration, count) {
		if len(accepted) >= MaxTimestamps {
			break
		}
		if tooClose(accepted, candidate, p.dedupe) {
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted
}

// IntervalTimestamps generates up to count evenly spaced timestamps over the
// duration, spaced duration/(count+1) apart with a one second floor, all
// strictly inside (0, duration-1).
func IntervalTimestamps(duration float64, count int) []float64 {
	if count <= 0 || duration <= 0 {
		return nil
	}

	spacing := duration / float64(count+1)
	if spacing < 1 {
		spacing = 1
	}

	var stamps []float64
	for i := 1; i <= count; i++ {
		t := spacing * float64(i)
		if t >= duration-edgeMargin {
			break
		}
		stamps = append(stamps, t)
	}
	return stamps
}

func tooClose(accepted []float64, candidate, window float64) bool {
	for _, t := range accepted {
		diff := t - candidate
		if diff < 0 {
			diff = -diff
		}
		if diff < window {
			return true
		}
	}
	return false
}

// parseDuration extracts an HH:MM:SS.ff duration record from diagnostic
// text and converts it to seconds.
func parseDuration(out string) (float64, bool) {
	m := durationPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	frac, _ := strconv.Atoi(m[4])

	fracSeconds := float64(frac)
	for i := 0; i < len(m[4]); i++ {
		fracSeconds /= 10
	}

	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + fracSeconds, true
}
