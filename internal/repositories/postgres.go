package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scenescore/backend/internal/db"
	"github.com/scenescore/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresThumbnailRepository provides PostgreSQL-backed persistence for
// scene-timeline thumbnails.
type PostgresThumbnailRepository struct {
	pool db.Pool
}

// NewPostgresThumbnailRepository constructs a thumbnail repository.
func NewPostgresThumbnailRepository(pool db.Pool) *PostgresThumbnailRepository {
	return &PostgresThumbnailRepository{pool: pool}
}

// CreateBatch persists every thumbnail of one timeline in a single
// transaction, so a timeline is either fully recorded or absent.
func (r *PostgresThumbnailRepository) CreateBatch(ctx context.Context, thumbs []models.Thumbnail) error {
	if len(thumbs) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin thumbnail batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range thumbs {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx, `
        INSERT INTO thumbnails (id, video_id, session_id, idx, ts, storage_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, t.ID, t.VideoID, t.SessionID, t.Index, t.Timestamp, t.StorageKey, createdAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrConflict
			}
			return fmt.Errorf("insert thumbnail %s: %w", t.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListByVideo fetches a video's thumbnails ordered by input index.
func (r *PostgresThumbnailRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Thumbnail, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, session_id, idx, ts, storage_key, created_at
        FROM thumbnails
        WHERE video_id = $1
        ORDER BY idx
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("select thumbnails: %w", err)
	}
	defer rows.Close()

	var thumbs []models.Thumbnail
	for rows.Next() {
		var t models.Thumbnail
		if err := rows.Scan(&t.ID, &t.VideoID, &t.SessionID, &t.Index, &t.Timestamp, &t.StorageKey, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		thumbs = append(thumbs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thumbnails: %w", err)
	}

	return thumbs, nil
}

// DeleteByVideo removes a video's entire timeline, used before regeneration.
func (r *PostgresThumbnailRepository) DeleteByVideo(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM thumbnails WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete thumbnails: %w", err)
	}
	return nil
}

// PostgresSceneRepository provides PostgreSQL-backed persistence for
// confirmed scenes.
type PostgresSceneRepository struct {
	pool db.Pool
}

// NewPostgresSceneRepository constructs a scene repository.
func NewPostgresSceneRepository(pool db.Pool) *PostgresSceneRepository {
	return &PostgresSceneRepository{pool: pool}
}

// sceneWriter is the slice of pgx shared by a pooled connection and an open
// transaction, so the overlap-checked insert runs the same either way.
type sceneWriter interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create persists one confirmed scene. Overlapping an existing scene of the
// same video is a conflict: the segmenter's floor makes overlaps impossible
// within one session, and this guard extends that across sessions.
func (r *PostgresSceneRepository) Create(ctx context.Context, scene models.Scene) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return insertScene(ctx, conn, scene)
}

// CreateBatch persists a trim session's confirmed scenes in a single
// transaction: either every scene lands or none do, so a failed export can
// be retried without colliding with its own partial output.
func (r *PostgresSceneRepository) CreateBatch(ctx context.Context, scenes []models.Scene) error {
	if len(scenes) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scene batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, scene := range scenes {
		if err := insertScene(ctx, tx, scene); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertScene(ctx context.Context, w sceneWriter, scene models.Scene) error {
	if scene.EndTime <= scene.StartTime {
		return fmt.Errorf("scene %s: end %.3f not after start %.3f", scene.ID, scene.EndTime, scene.StartTime)
	}

	var overlaps bool
	err := w.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM scenes
            WHERE video_id = $1 AND start_time < $3 AND end_time > $2
        )
    `, scene.VideoID, scene.StartTime, scene.EndTime).Scan(&overlaps)
	if err != nil {
		return fmt.Errorf("check scene overlap: %w", err)
	}
	if overlaps {
		return ErrConflict
	}

	createdAt := scene.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = w.Exec(ctx, `
        INSERT INTO scenes (id, video_id, project_id, start_time, end_time, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, scene.ID, scene.VideoID, scene.ProjectID, scene.StartTime, scene.EndTime, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert scene: %w", err)
	}

	return nil
}

// GetByID fetches one scene.
func (r *PostgresSceneRepository) GetByID(ctx context.Context, id string) (models.Scene, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Scene{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, video_id, project_id, start_time, end_time, created_at
        FROM scenes
        WHERE id = $1
    `, id)

	var scene models.Scene
	if err := row.Scan(&scene.ID, &scene.VideoID, &scene.ProjectID, &scene.StartTime, &scene.EndTime, &scene.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Scene{}, ErrNotFound
		}
		return models.Scene{}, fmt.Errorf("select scene: %w", err)
	}

	return scene, nil
}

// ListByVideo fetches a video's scenes in timeline order.
func (r *PostgresSceneRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Scene, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, project_id, start_time, end_time, created_at
        FROM scenes
        WHERE video_id = $1
        ORDER BY start_time
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("select scenes: %w", err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		var scene models.Scene
		if err := rows.Scan(&scene.ID, &scene.VideoID, &scene.ProjectID, &scene.StartTime, &scene.EndTime, &scene.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}

	return scenes, nil
}

// Delete removes one scene.
func (r *PostgresSceneRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByVideo removes every scene of a video.
func (r *PostgresSceneRepository) DeleteByVideo(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM scenes WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete scenes: %w", err)
	}
	return nil
}

// PostgresAudioRepository provides PostgreSQL-backed persistence for audio
// variations, sound effects, and mixed previews.
type PostgresAudioRepository struct {
	pool db.Pool
}

// NewPostgresAudioRepository constructs an audio repository.
func NewPostgresAudioRepository(pool db.Pool) *PostgresAudioRepository {
	return &PostgresAudioRepository{pool: pool}
}

// CreateVariation persists a background music candidate.
func (r *PostgresAudioRepository) CreateVariation(ctx context.Context, variation models.AudioVariation) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := variation.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO audio_variations (id, scene_id, storage_key, created_at)
        VALUES ($1, $2, $3, $4)
    `, variation.ID, variation.SceneID, variation.StorageKey, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert audio variation: %w", err)
	}
	return nil
}

// GetVariation fetches one music candidate.
func (r *PostgresAudioRepository) GetVariation(ctx context.Context, id string) (models.AudioVariation, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.AudioVariation{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, scene_id, storage_key, created_at
        FROM audio_variations
        WHERE id = $1
    `, id)

	var v models.AudioVariation
	if err := row.Scan(&v.ID, &v.SceneID, &v.StorageKey, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AudioVariation{}, ErrNotFound
		}
		return models.AudioVariation{}, fmt.Errorf("select audio variation: %w", err)
	}
	return v, nil
}

// ListVariationsByScene fetches a scene's music candidates.
func (r *PostgresAudioRepository) ListVariationsByScene(ctx context.Context, sceneID string) ([]models.AudioVariation, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, scene_id, storage_key, created_at
        FROM audio_variations
        WHERE scene_id = $1
        ORDER BY created_at
    `, sceneID)
	if err != nil {
		return nil, fmt.Errorf("select audio variations: %w", err)
	}
	defer rows.Close()

	var variations []models.AudioVariation
	for rows.Next() {
		var v models.AudioVariation
		if err := rows.Scan(&v.ID, &v.SceneID, &v.StorageKey, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audio variation: %w", err)
		}
		variations = append(variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audio variations: %w", err)
	}
	return variations, nil
}

// CreateEffect persists a timestamped sound effect.
func (r *PostgresAudioRepository) CreateEffect(ctx context.Context, effect models.SoundEffect) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := effect.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO sound_effects (id, scene_id, storage_key, onset_ms, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, effect.ID, effect.SceneID, effect.StorageKey, effect.OnsetMs, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert sound effect: %w", err)
	}
	return nil
}

// GetEffect fetches one sound effect.
func (r *PostgresAudioRepository) GetEffect(ctx context.Context, id string) (models.SoundEffect, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.SoundEffect{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, scene_id, storage_key, onset_ms, created_at
        FROM sound_effects
        WHERE id = $1
    `, id)

	var fx models.SoundEffect
	if err := row.Scan(&fx.ID, &fx.SceneID, &fx.StorageKey, &fx.OnsetMs, &fx.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SoundEffect{}, ErrNotFound
		}
		return models.SoundEffect{}, fmt.Errorf("select sound effect: %w", err)
	}
	return fx, nil
}

// ListEffectsByScene fetches a scene's sound effects ordered by onset.
func (r *PostgresAudioRepository) ListEffectsByScene(ctx context.Context, sceneID string) ([]models.SoundEffect, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, scene_id, storage_key, onset_ms, created_at
        FROM sound_effects
        WHERE scene_id = $1
        ORDER BY onset_ms
    `, sceneID)
	if err != nil {
		return nil, fmt.Errorf("select sound effects: %w", err)
	}
	defer rows.Close()

	var effects []models.SoundEffect
	for rows.Next() {
		var fx models.SoundEffect
		if err := rows.Scan(&fx.ID, &fx.SceneID, &fx.StorageKey, &fx.OnsetMs, &fx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sound effect: %w", err)
		}
		effects = append(effects, fx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sound effects: %w", err)
	}
	return effects, nil
}

// CreatePreview records a mixed preview track.
func (r *PostgresAudioRepository) CreatePreview(ctx context.Context, preview models.PreviewTrack) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := preview.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO preview_tracks (id, scene_id, storage_key, duration_seconds, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, preview.ID, preview.SceneID, preview.StorageKey, preview.DurationSeconds, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert preview track: %w", err)
	}
	return nil
}

// ListPreviewsByScene fetches a scene's mixed previews, newest first.
func (r *PostgresAudioRepository) ListPreviewsByScene(ctx context.Context, sceneID string) ([]models.PreviewTrack, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, scene_id, storage_key, duration_seconds, created_at
        FROM preview_tracks
        WHERE scene_id = $1
        ORDER BY created_at DESC
    `, sceneID)
	if err != nil {
		return nil, fmt.Errorf("select preview tracks: %w", err)
	}
	defer rows.Close()

	var previews []models.PreviewTrack
	for rows.Next() {
		var p models.PreviewTrack
		if err := rows.Scan(&p.ID, &p.SceneID, &p.StorageKey, &p.DurationSeconds, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan preview track: %w", err)
		}
		previews = append(previews, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preview tracks: %w", err)
	}
	return previews, nil
}
