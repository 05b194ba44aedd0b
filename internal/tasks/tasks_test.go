package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
	tu "github.com/desertthunder/spotgrab/internal/testing"
	"github.com/desertthunder/spotgrab/internal/track"
)

const testURI = "spotify:track:3QmLC9gCWbqvn7cUKWivq1"

// memoryRunStore records run transitions in memory.
type memoryRunStore struct {
	created []*models.DownloadRun
	updated []*models.DownloadRun
}

func (s *memoryRunStore) Create(run *models.DownloadRun) error {
	s.created = append(s.created, run)
	return nil
}

func (s *memoryRunStore) Update(run *models.DownloadRun) error {
	s.updated = append(s.updated, run)
	return nil
}

type memoryTrackStore struct {
	upserted []*models.CachedTrack
}

func (s *memoryTrackStore) Upsert(t *models.CachedTrack) error {
	s.upserted = append(s.upserted, t)
	return nil
}

func testMetadata(files ...track.AudioFile) *track.Metadata {
	return &track.Metadata{
		Name:       "Test Track",
		Artists:    []string{"Test Artist"},
		Album:      "Test Album",
		DurationMS: 210000,
		Files:      files,
	}
}

func TestDownloadEngineRun(t *testing.T) {
	ctx := context.Background()
	policy := track.QualityPolicy{Tier: track.QualityVeryHigh}

	t.Run("completes the pipeline end to end", func(t *testing.T) {
		audio := bytes.Repeat([]byte{0x4F}, 300000)
		session := &tu.MockSession{
			Meta: testMetadata(
				track.AudioFile{Format: track.OggVorbis320, FileID: "aa11"},
				track.AudioFile{Format: track.OggVorbis96, FileID: "bb22"},
			),
			Audio: audio,
		}
		runs := &memoryRunStore{}
		tracks := &memoryTrackStore{}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, runs, tracks, nil)

		dir := t.TempDir()
		prog := make(chan ProgressUpdate, 64)
		result, err := engine.Run(ctx, prog, RunOpts{
			URI:       testURI,
			Policy:    policy,
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.TrackID.Hex() != "7e529207381945d189ad0c5473941019" {
			t.Errorf("unexpected track id %s", result.TrackID.Hex())
		}
		if result.Selected.FileID != "aa11" {
			t.Errorf("expected the 320kbps descriptor, got %s", result.Selected.FileID)
		}
		if session.LastFile.FileID != "aa11" {
			t.Errorf("stream should be opened with the selected descriptor, got %s", session.LastFile.FileID)
		}
		if result.Summary.Bytes != int64(len(audio)) {
			t.Errorf("expected %d bytes, got %d", len(audio), result.Summary.Bytes)
		}
		if !session.Closed {
			t.Error("session should be closed after the run")
		}

		wantDest := filepath.Join(dir, "track_7e529207381945d189ad0c5473941019.ogg")
		if result.Summary.Path != wantDest {
			t.Errorf("expected destination %s, got %s", wantDest, result.Summary.Path)
		}
		data, readErr := os.ReadFile(wantDest)
		if readErr != nil {
			t.Fatalf("read destination: %v", readErr)
		}
		if !bytes.Equal(data, audio) {
			t.Error("destination bytes do not match the stream")
		}

		if len(runs.created) != 1 {
			t.Fatalf("expected one run record, got %d", len(runs.created))
		}
		if len(runs.updated) == 0 || runs.updated[len(runs.updated)-1].Status() != models.RunComplete {
			t.Error("run record should end in complete status")
		}
		if len(tracks.upserted) != 1 {
			t.Errorf("expected metadata to be cached once, got %d", len(tracks.upserted))
		}
	})

	t.Run("authentication failure aborts before parsing", func(t *testing.T) {
		svc := &tu.MockSessionService{Err: shared.ErrAuthRejected}
		engine := NewDownloadEngine(svc, nil, nil, nil)

		_, err := engine.Run(ctx, nil, RunOpts{URI: testURI, Policy: policy, OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrAuthRejected) {
			t.Errorf("expected ErrAuthRejected, got %v", err)
		}
	})

	t.Run("malformed reference fails after authentication", func(t *testing.T) {
		session := &tu.MockSession{}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, nil, nil, nil)

		_, err := engine.Run(ctx, nil, RunOpts{URI: "spotify:album:abc", Policy: policy, OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidTrackURI) {
			t.Errorf("expected ErrInvalidTrackURI, got %v", err)
		}
		if !session.Closed {
			t.Error("session should still be closed on failure")
		}
	})

	t.Run("empty file list surfaces ErrNoAudioAvailable", func(t *testing.T) {
		session := &tu.MockSession{Meta: testMetadata()}
		runs := &memoryRunStore{}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, runs, nil, nil)

		_, err := engine.Run(ctx, nil, RunOpts{URI: testURI, Policy: policy, OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrNoAudioAvailable) {
			t.Errorf("expected ErrNoAudioAvailable, got %v", err)
		}
		if len(runs.created) != 0 {
			t.Error("no run record should be created before a stream is selected")
		}
	})

	t.Run("no matching descriptor surfaces ErrNoMatchingFormat", func(t *testing.T) {
		session := &tu.MockSession{
			Meta: testMetadata(track.AudioFile{Format: track.MP3_96, FileID: "cc33"}),
		}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, nil, nil, nil)

		strict := track.QualityPolicy{Tier: track.QualityVeryHigh, VorbisOnly: true}
		_, err := engine.Run(ctx, nil, RunOpts{URI: testURI, Policy: strict, OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrNoMatchingFormat) {
			t.Errorf("expected ErrNoMatchingFormat, got %v", err)
		}
	})

	t.Run("stream open failure marks the run failed", func(t *testing.T) {
		session := &tu.MockSession{
			Meta:    testMetadata(track.AudioFile{Format: track.OggVorbis320, FileID: "aa11"}),
			OpenErr: shared.ErrStreamOpen,
		}
		runs := &memoryRunStore{}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, runs, nil, nil)

		_, err := engine.Run(ctx, nil, RunOpts{URI: testURI, Policy: policy, OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrStreamOpen) {
			t.Errorf("expected ErrStreamOpen, got %v", err)
		}
		if len(runs.updated) == 0 || runs.updated[0].Status() != models.RunFailed {
			t.Error("run record should be marked failed")
		}
	})

	t.Run("progress events arrive in pipeline order", func(t *testing.T) {
		session := &tu.MockSession{
			Meta:  testMetadata(track.AudioFile{Format: track.OggVorbis320, FileID: "aa11"}),
			Audio: []byte("audio"),
		}
		engine := NewDownloadEngine(&tu.MockSessionService{Session: session}, nil, nil, nil)

		prog := make(chan ProgressUpdate, 64)
		if _, err := engine.Run(ctx, prog, RunOpts{URI: testURI, Policy: policy, OutputDir: t.TempDir()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []Phase{
			ResolvingCredentials, Authenticating, ParsingReference,
			FetchingMetadata, FetchingMetadata, SelectingStream, Downloading, Done,
		}
		updates := drainProgress(prog)
		if len(updates) != len(want) {
			t.Fatalf("expected %d updates, got %d", len(want), len(updates))
		}
		for i, u := range updates {
			if u.Phase != want[i] {
				t.Errorf("update %d: expected phase %s, got %s", i, want[i], u.Phase)
			}
		}
	})
}
