package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/track"
)

// RunStore persists download run records.
type RunStore interface {
	Create(run *models.DownloadRun) error
	Update(run *models.DownloadRun) error
}

// TrackStore caches track metadata snapshots.
type TrackStore interface {
	Upsert(t *models.CachedTrack) error
}

// RunOpts configures a single pipeline run.
type RunOpts struct {
	URI                    string
	CredentialsPath        string // explicit --credentials flag, may be empty
	DefaultCredentialsPath string // configured fallback path
	Policy                 track.QualityPolicy
	OutputDir              string
	ChunkSize              int
	ProgressEvery          int64
	Preload                bool
	Halt                   <-chan struct{}
}

// RunResult is the outcome of a successful pipeline run.
type RunResult struct {
	TrackID  track.ID
	Metadata *track.Metadata
	Selected track.AudioFile
	Summary  *DownloadSummary
	Metrics  services.StreamMetrics
	Source   services.CredentialSource
}

// DownloadEngine orchestrates the retrieval pipeline: credential resolution,
// session bootstrap, reference parsing, metadata validation, stream selection
// and the chunked transfer. Stages are hard gates; the first failure aborts
// the run.
type DownloadEngine struct {
	sessions services.SessionService
	runs     RunStore
	tracks   TrackStore
	logger   *log.Logger
}

// NewDownloadEngine builds an engine. The stores are optional; a nil store
// disables history recording for that entity.
func NewDownloadEngine(sessions services.SessionService, runs RunStore, tracks TrackStore, logger *log.Logger) *DownloadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DownloadEngine{sessions: sessions, runs: runs, tracks: tracks, logger: logger}
}

// Run executes the pipeline for one track. Progress events go to prog when
// non-nil; sends never block, a slow consumer just misses updates.
//
// On failure the returned error wraps the stage's sentinel from
// [shared]; any partial file stays on disk and the run record, if one was
// created, is marked failed with the byte count reached.
func (e *DownloadEngine) Run(ctx context.Context, prog chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	sendProgress(prog, resolvingUpdate())
	source := services.ResolveCredentialSource(opts.CredentialsPath, opts.DefaultCredentialsPath, e.logger)

	sendProgress(prog, authenticatingUpdate(source))
	session, err := e.sessions.Authenticate(ctx, source)
	if err != nil {
		sendProgress(prog, failedUpdate(Authenticating, err))
		return nil, err
	}
	defer session.Close()
	e.logger.Info("session established", "username", session.Username(), "gateway", e.sessions.Name())

	sendProgress(prog, parsingUpdate(opts.URI))
	id, err := track.ParseURI(opts.URI)
	if err != nil {
		sendProgress(prog, failedUpdate(ParsingReference, err))
		return nil, err
	}

	sendProgress(prog, fetchingMetadataUpdate())
	meta, err := session.TrackMetadata(ctx, id)
	if err != nil {
		sendProgress(prog, failedUpdate(FetchingMetadata, err))
		return nil, err
	}
	if len(meta.Files) == 0 {
		err = fmt.Errorf("%w: track %s has no audio files", shared.ErrNoAudioAvailable, id)
		sendProgress(prog, failedUpdate(FetchingMetadata, err))
		return nil, err
	}
	sendProgress(prog, metadataUpdate(meta))
	e.cacheTrack(id, meta)

	selected, ok := opts.Policy.Select(meta.Files)
	if !ok {
		err = fmt.Errorf("%w: no descriptor matches quality %s (vorbis_only=%v fallback=%v)",
			shared.ErrNoMatchingFormat, opts.Policy.Tier, opts.Policy.VorbisOnly, opts.Policy.AllowFallback)
		sendProgress(prog, failedUpdate(SelectingStream, err))
		return nil, err
	}
	sendProgress(prog, selectedUpdate(selected))

	dest, err := e.destination(opts.OutputDir, id, selected.Format)
	if err != nil {
		sendProgress(prog, failedUpdate(Downloading, err))
		return nil, err
	}

	run := models.NewDownloadRun(id.String(), meta.Name, meta.ArtistLine(),
		selected.Format.String(), opts.Policy.Tier.String(), dest)
	e.createRun(run)

	stream, err := session.OpenStream(ctx, id, selected, services.StreamOptions{
		Preload: opts.Preload,
		Halt:    opts.Halt,
	})
	if err != nil {
		e.failRun(run, 0, err)
		sendProgress(prog, failedUpdate(Downloading, err))
		return nil, err
	}
	defer stream.Close()
	e.logger.Info("stream opened",
		"format", stream.Format, "file", stream.FileID,
		"key_fetch", stream.Metrics.KeyFetchTime, "preloaded", stream.Metrics.PreloadedKey)

	sendProgress(prog, downloadingUpdate(dest))
	summary, err := Download(stream, dest, opts.ChunkSize, opts.ProgressEvery, prog)
	if err != nil {
		e.failRun(run, summary.Bytes, err)
		sendProgress(prog, failedUpdate(Downloading, err))
		return nil, err
	}

	run.Complete(summary.Bytes)
	e.updateRun(run)
	sendProgress(prog, doneUpdate(summary))

	return &RunResult{
		TrackID:  id,
		Metadata: meta,
		Selected: selected,
		Summary:  summary,
		Metrics:  stream.Metrics,
		Source:   source,
	}, nil
}

// destination resolves the output path track_<hexid>.<ext>, creating the
// output directory if needed.
func (e *DownloadEngine) destination(dir string, id track.ID, format track.Format) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", shared.ErrFileWrite, err)
	}
	name := fmt.Sprintf("track_%s%s", id.Hex(), format.Extension())
	return filepath.Join(dir, name), nil
}

func (e *DownloadEngine) cacheTrack(id track.ID, meta *track.Metadata) {
	if e.tracks == nil {
		return
	}
	cached := models.NewCachedTrack(id.String(), meta.Name, meta.ArtistLine(), meta.Album, meta.DurationMS, len(meta.Files))
	if err := e.tracks.Upsert(cached); err != nil {
		e.logger.Warn("failed to cache track metadata", "error", err)
	}
}

func (e *DownloadEngine) createRun(run *models.DownloadRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record download run", "error", err)
	}
}

func (e *DownloadEngine) updateRun(run *models.DownloadRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to update download run", "error", err)
	}
}

func (e *DownloadEngine) failRun(run *models.DownloadRun, bytes int64, cause error) {
	run.Fail(bytes, cause)
	e.updateRun(run)
}
