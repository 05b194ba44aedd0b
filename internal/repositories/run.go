package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
)

// RunRepository implements models.Repository[*models.DownloadRun] for download history.
//
// Handles run lifecycle persistence with soft delete support and status-based queries.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new [models.DownloadRun] into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.DownloadRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, track_id, track_name, artists, format, quality,
			status, bytes, destination, error_message, started_at,
			completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.TrackID(),
		run.TrackName(),
		run.Artists(),
		run.Format(),
		run.Quality(),
		string(run.Status()),
		run.Bytes(),
		run.Destination(),
		errorMessage,
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.DownloadRun, error) {
	query := `
		SELECT id, sequence, track_id, track_name, artists, format, quality,
			status, bytes, destination, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM runs
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(run *models.DownloadRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, bytes = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	var errorMessage any = run.ErrorMessage()
	if errorMessage == "" {
		errorMessage = nil
	}

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.Bytes(),
		errorMessage,
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a run by setting deleted_at
func (r *RunRepository) Delete(id string) error {
	query := `UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// List retrieves runs matching the given criteria, most recent first.
//
// Supported criteria keys: "status", "track_id".
func (r *RunRepository) List(criteria map[string]any) ([]*models.DownloadRun, error) {
	query := `
		SELECT id, sequence, track_id, track_name, artists, format, quality,
			status, bytes, destination, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM runs
		WHERE deleted_at IS NULL
	`

	var args []any
	if status, ok := criteria["status"]; ok {
		query += " AND status = ?"
		args = append(args, status)
	}
	if trackID, ok := criteria["track_id"]; ok {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.DownloadRun
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.DownloadRun, error) {
	run, err := r.scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	return run, err
}

func (r *RunRepository) scanRow(row scannable) (*models.DownloadRun, error) {
	var (
		id, trackID, trackName, artists, format, quality, status, destination string
		sequence                                                              int
		bytes                                                                 int64
		errorMessage                                                          sql.NullString
		startedAt, createdAt, updatedAt                                       time.Time
		completedAt, deletedAt                                                sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &trackID, &trackName, &artists, &format, &quality,
		&status, &bytes, &destination, &errorMessage, &startedAt,
		&completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	var completed, deleted *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreDownloadRun(
		id, sequence, trackID, trackName, artists, format, quality,
		models.RunStatus(status), bytes, destination, errorMessage.String,
		startedAt, completed, createdAt, updatedAt, deleted,
	), nil
}
