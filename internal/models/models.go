// package models defines the data model for the spotgrab download service
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the download service.
// Implementations include DownloadRun and CachedTrack.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RunStatus enumerates the terminal states of a download run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunComplete  RunStatus = "complete"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// DownloadRun records one pipeline invocation and its outcome.
type DownloadRun struct {
	id           string
	sequence     int
	trackID      string
	trackName    string
	artists      string
	format       string
	quality      string
	status       RunStatus
	bytes        int64
	destination  string
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewDownloadRun creates a pending run for the given track reference.
func NewDownloadRun(trackID, trackName, artists, format, quality, destination string) *DownloadRun {
	now := time.Now()
	return &DownloadRun{
		trackID:     trackID,
		trackName:   trackName,
		artists:     artists,
		format:      format,
		quality:     quality,
		status:      RunPending,
		destination: destination,
		startedAt:   now,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (r *DownloadRun) ID() string               { return r.id }
func (r *DownloadRun) Sequence() int            { return r.sequence }
func (r *DownloadRun) TrackID() string          { return r.trackID }
func (r *DownloadRun) TrackName() string        { return r.trackName }
func (r *DownloadRun) Artists() string          { return r.artists }
func (r *DownloadRun) Format() string           { return r.format }
func (r *DownloadRun) Quality() string          { return r.quality }
func (r *DownloadRun) Status() RunStatus        { return r.status }
func (r *DownloadRun) Bytes() int64             { return r.bytes }
func (r *DownloadRun) Destination() string      { return r.destination }
func (r *DownloadRun) ErrorMessage() string     { return r.errorMessage }
func (r *DownloadRun) StartedAt() time.Time     { return r.startedAt }
func (r *DownloadRun) CompletedAt() *time.Time  { return r.completedAt }
func (r *DownloadRun) CreatedAt() time.Time     { return r.createdAt }
func (r *DownloadRun) UpdatedAt() time.Time     { return r.updatedAt }
func (r *DownloadRun) DeletedAt() *time.Time    { return r.deletedAt }
func (r *DownloadRun) SetID(id string)          { r.id = id }
func (r *DownloadRun) SetSequence(seq int)      { r.sequence = seq }
func (r *DownloadRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Complete marks the run as finished with the total bytes written.
func (r *DownloadRun) Complete(bytes int64) {
	now := time.Now()
	r.status = RunComplete
	r.bytes = bytes
	r.completedAt = &now
	r.updatedAt = now
}

// Fail marks the run as failed, recording the bytes written before the failure.
//
// Partial artifacts are deliberately retained, so the byte count matters.
func (r *DownloadRun) Fail(bytes int64, cause error) {
	now := time.Now()
	r.status = RunFailed
	r.bytes = bytes
	if cause != nil {
		r.errorMessage = cause.Error()
	}
	r.completedAt = &now
	r.updatedAt = now
}

// Validate checks the run's required fields.
func (r *DownloadRun) Validate() error {
	if r.trackID == "" {
		return fmt.Errorf("download run requires a track id")
	}
	if r.destination == "" {
		return fmt.Errorf("download run requires a destination path")
	}
	switch r.status {
	case RunPending, RunComplete, RunFailed, RunCancelled:
	default:
		return fmt.Errorf("invalid run status %q", r.status)
	}
	if r.bytes < 0 {
		return fmt.Errorf("negative byte count %d", r.bytes)
	}
	return nil
}

// RestoreDownloadRun rebuilds an entity from persisted state. Used by repositories only.
func RestoreDownloadRun(
	id string, sequence int, trackID, trackName, artists, format, quality string,
	status RunStatus, bytes int64, destination, errorMessage string,
	startedAt time.Time, completedAt *time.Time, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *DownloadRun {
	return &DownloadRun{
		id: id, sequence: sequence, trackID: trackID, trackName: trackName,
		artists: artists, format: format, quality: quality, status: status,
		bytes: bytes, destination: destination, errorMessage: errorMessage,
		startedAt: startedAt, completedAt: completedAt,
		createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt,
	}
}

// CachedTrack is a cached gateway metadata snapshot keyed by hex track id.
type CachedTrack struct {
	id         string
	sequence   int
	trackID    string
	name       string
	artists    string
	album      string
	durationMS int
	fileCount  int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewCachedTrack creates a cache entry for a fetched metadata snapshot.
func NewCachedTrack(trackID, name, artists, album string, durationMS, fileCount int) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		trackID:    trackID,
		name:       name,
		artists:    artists,
		album:      album,
		durationMS: durationMS,
		fileCount:  fileCount,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (t *CachedTrack) ID() string               { return t.id }
func (t *CachedTrack) Sequence() int            { return t.sequence }
func (t *CachedTrack) TrackID() string          { return t.trackID }
func (t *CachedTrack) Name() string             { return t.name }
func (t *CachedTrack) Artists() string          { return t.artists }
func (t *CachedTrack) Album() string            { return t.album }
func (t *CachedTrack) DurationMS() int          { return t.durationMS }
func (t *CachedTrack) FileCount() int           { return t.fileCount }
func (t *CachedTrack) CreatedAt() time.Time     { return t.createdAt }
func (t *CachedTrack) UpdatedAt() time.Time     { return t.updatedAt }
func (t *CachedTrack) DeletedAt() *time.Time    { return t.deletedAt }
func (t *CachedTrack) SetID(id string)          { t.id = id }
func (t *CachedTrack) SetSequence(seq int)      { t.sequence = seq }
func (t *CachedTrack) SetUpdatedAt(u time.Time) { t.updatedAt = u }

// Validate checks the cache entry's required fields.
func (t *CachedTrack) Validate() error {
	if t.trackID == "" {
		return fmt.Errorf("cached track requires a track id")
	}
	if t.name == "" {
		return fmt.Errorf("cached track requires a name")
	}
	if t.durationMS < 0 {
		return fmt.Errorf("negative duration %d", t.durationMS)
	}
	return nil
}

// RestoreCachedTrack rebuilds an entity from persisted state. Used by repositories only.
func RestoreCachedTrack(
	id string, sequence int, trackID, name, artists, album string,
	durationMS, fileCount int, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *CachedTrack {
	return &CachedTrack{
		id: id, sequence: sequence, trackID: trackID, name: name, artists: artists,
		album: album, durationMS: durationMS, fileCount: fileCount,
		createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt,
	}
}
