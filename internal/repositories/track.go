package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack] for metadata caching.
//
// Every successful metadata fetch is cached so history output can show track
// details without another gateway round trip.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, track_id, name, artists, album, duration_ms, file_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.TrackID(),
		track.Name(),
		track.Artists(),
		track.Album(),
		track.DurationMS(),
		track.FileCount(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by ID, excluding soft-deleted entries
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, track_id, name, artists, album, duration_ms, file_count, created_at, updated_at, deleted_at
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a cached track by its hex track id
func (r *TrackRepository) GetByTrackID(trackID string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, track_id, name, artists, album, duration_ms, file_count, created_at, updated_at, deleted_at
		FROM tracks
		WHERE track_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, trackID))
}

// Upsert caches a metadata snapshot, replacing any existing entry for the same track id.
func (r *TrackRepository) Upsert(track *models.CachedTrack) error {
	existing, err := r.GetByTrackID(track.TrackID())
	if err != nil {
		return r.Create(track)
	}

	track.SetID(existing.ID())
	track.SetSequence(existing.Sequence())
	return r.Update(track)
}

// Update modifies an existing cached track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET name = ?, artists = ?, album = ?, duration_ms = ?, file_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Name(),
		track.Artists(),
		track.Album(),
		track.DurationMS(),
		track.FileCount(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found: %s", track.ID())
	}

	return nil
}

// Delete soft-deletes a cached track by setting deleted_at
func (r *TrackRepository) Delete(id string) error {
	query := `UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found: %s", id)
	}

	return nil
}

// List retrieves cached tracks, most recently updated first.
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, track_id, name, artists, album, duration_ms, file_count, created_at, updated_at, deleted_at
		FROM tracks
		WHERE deleted_at IS NULL
	`

	var args []any
	if trackID, ok := criteria["track_id"]; ok {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	return tracks, rows.Err()
}

func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	track, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found")
	}
	return track, err
}

func (r *TrackRepository) scanRow(row scannable) (*models.CachedTrack, error) {
	var (
		id, trackID, name, artists    string
		album                         sql.NullString
		sequence, durationMS, fileCnt int
		createdAt, updatedAt          time.Time
		deletedAt                     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &trackID, &name, &artists, &album, &durationMS, &fileCnt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedTrack(id, sequence, trackID, name, artists, album.String, durationMS, fileCnt, createdAt, updatedAt, deleted), nil
}
