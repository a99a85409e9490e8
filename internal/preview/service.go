// Package preview produces mixed preview tracks for a scene: it resolves
// the chosen audio artifacts, downloads them into a private working
// directory, runs the mix, and publishes exactly one output or nothing.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/scenescore/backend/internal/logging"
	"github.com/scenescore/backend/internal/media"
	"github.com/scenescore/backend/internal/models"
	"github.com/scenescore/backend/internal/storage"
)

var (
	// ErrNoSources rejects a preview request naming neither music nor
	// effects. Checked before any artifact is downloaded or any
	// subprocess started.
	ErrNoSources = errors.New("preview requires at least one audio source")
	// ErrWrongScene rejects an effect that belongs to a different scene.
	ErrWrongScene = errors.New("sound effect does not belong to the scene")
)

// SceneStore resolves scenes by id.
type SceneStore interface {
	GetByID(ctx context.Context, id string) (models.Scene, error)
}

// AudioStore resolves audio artifacts and records finished previews.
type AudioStore interface {
	GetVariation(ctx context.Context, id string) (models.AudioVariation, error)
	GetEffect(ctx context.Context, id string) (models.SoundEffect, error)
	CreatePreview(ctx context.Context, preview models.PreviewTrack) error
}

// ObjectStore moves artifact bytes between the bucket and local temp paths.
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Mixer runs the audio mix.
type Mixer interface {
	Mix(ctx context.Context, req media.MixRequest) error
}

// Request selects the sources for one preview mix.
type Request struct {
	SceneID   string
	MusicID   string
	EffectIDs []string
}

// Service coordinates preview generation end to end.
type Service struct {
	scenes  SceneStore
	audio   AudioStore
	objects ObjectStore
	mixer   Mixer
	logger  *slog.Logger
}

// NewService wires the preview pipeline together.
func NewService(scenes SceneStore, audio AudioStore, objects ObjectStore, mixer Mixer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scenes: scenes, audio: audio, objects: objects, mixer: mixer, logger: logger}
}

// Mix produces one preview track time-locked to the scene's duration. On
// any failure nothing is uploaded and nothing is persisted; the working
// directory is removed either way.
func (s *Service) Mix(ctx context.Context, req Request) (models.PreviewTrack, error) {
	if req.MusicID == "" && len(req.EffectIDs) == 0 {
		return models.PreviewTrack{}, ErrNoSources
	}

	ctx, span := logging.StartSpan(ctx, "preview.mix")
	defer span.End()

	scene, err := s.scenes.GetByID(ctx, req.SceneID)
	if err != nil {
		return models.PreviewTrack{}, fmt.Errorf("resolve scene %s: %w", req.SceneID, err)
	}
	duration := scene.Duration()

	workDir := filepath.Join(os.TempDir(), "scenescore-mix-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return models.PreviewTrack{}, fmt.Errorf("create working directory: %w", err)
	}
	defer s.cleanup(workDir)

	mixReq := media.MixRequest{
		DurationSeconds: duration,
		OutputPath:      filepath.Join(workDir, "preview.mp3"),
	}

	if req.MusicID != "" {
		variation, err := s.audio.GetVariation(ctx, req.MusicID)
		if err != nil {
			return models.PreviewTrack{}, fmt.Errorf("resolve music %s: %w", req.MusicID, err)
		}
		if variation.SceneID != scene.ID {
			return models.PreviewTrack{}, ErrWrongScene
		}
		musicPath, err := s.stage(ctx, variation.StorageKey, filepath.Join(workDir, "music"))
		if err != nil {
			return models.PreviewTrack{}, err
		}
		mixReq.MusicPath = musicPath
	}

	for i, effectID := range req.EffectIDs {
		effect, err := s.audio.GetEffect(ctx, effectID)
		if err != nil {
			return models.PreviewTrack{}, fmt.Errorf("resolve effect %s: %w", effectID, err)
		}
		if effect.SceneID != scene.ID {
			return models.PreviewTrack{}, ErrWrongScene
		}
		if float64(effect.OnsetMs) >= duration*1000 {
			// Kept, not rejected: the trailing clip silently drops it.
			logging.FromContext(ctx).Warn("effect onset beyond scene end",
				"effectId", effectID, "onsetMs", effect.OnsetMs, "sceneDuration", duration)
		}
		effectPath, err := s.stage(ctx, effect.StorageKey, filepath.Join(workDir, fmt.Sprintf("effect_%03d", i)))
		if err != nil {
			return models.PreviewTrack{}, err
		}
		mixReq.Effects = append(mixReq.Effects, media.EffectInput{
			Path:    effectPath,
			OnsetMs: float64(effect.OnsetMs),
		})
	}

	if err := s.mixer.Mix(ctx, mixReq); err != nil {
		return models.PreviewTrack{}, fmt.Errorf("mix preview for scene %s: %w", scene.ID, err)
	}

	key, err := s.publish(ctx, scene.ID, mixReq.OutputPath)
	if err != nil {
		return models.PreviewTrack{}, err
	}

	track := models.PreviewTrack{
		ID:              uuid.NewString(),
		SceneID:         scene.ID,
		StorageKey:      key,
		DurationSeconds: duration,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.audio.CreatePreview(ctx, track); err != nil {
		return models.PreviewTrack{}, fmt.Errorf("persist preview for scene %s: %w", scene.ID, err)
	}

	return track, nil
}

// stage downloads an artifact beside the mix and names the local copy by
// its sniffed container format. An unrecognized header keeps the neutral
// .audio name.
func (s *Service) stage(ctx context.Context, key, base string) (string, error) {
	staged := base + ".audio"
	if err := s.download(ctx, key, staged); err != nil {
		return "", err
	}

	format, err := media.SniffAudio(staged)
	if err != nil {
		logging.FromContext(ctx).Debug("audio format unknown", "path", staged, "error", err)
		return staged, nil
	}

	named := base + media.AudioExtension(format)
	if named != staged {
		if err := os.Rename(staged, named); err != nil {
			return "", fmt.Errorf("stage %s: %w", key, err)
		}
		staged = named
	}
	logging.FromContext(ctx).Debug("audio source staged", "path", staged, "format", format)
	return staged, nil
}

func (s *Service) download(ctx context.Context, key, dest string) error {
	rc, err := s.objects.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("stage %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("stage %s: %w", key, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, sceneID, outputPath string) (string, error) {
	f, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("open mixed output: %w", err)
	}
	defer f.Close()

	key, err := storage.ContentKey(path.Join("previews", sceneID), ".mp3", f)
	if err != nil {
		return "", fmt.Errorf("key mixed output: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind mixed output: %w", err)
	}

	stored, err := s.objects.Save(ctx, key, f, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("upload mixed output: %w", err)
	}
	return stored, nil
}

func (s *Service) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("working directory cleanup failed", "dir", dir, "error", err)
	}
}
