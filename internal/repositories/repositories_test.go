package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestRun() *models.DownloadRun {
	return models.NewDownloadRun(
		"spotify:track:3QmLC9gCWbqvn7cUKWivq1", "Test Track", "Test Artist",
		"OGG_VORBIS_320", "very_high", "./track_7e52.ogg")
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newTestRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() == 0 {
			t.Error("run sequence should be assigned")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newTestRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.ID() != run.ID() {
			t.Errorf("expected ID %s, got %s", run.ID(), retrieved.ID())
		}
		if retrieved.TrackName() != "Test Track" {
			t.Errorf("expected track name to round trip, got %s", retrieved.TrackName())
		}
		if retrieved.Status() != models.RunPending {
			t.Errorf("expected pending status, got %s", retrieved.Status())
		}
	})

	t.Run("Update records completion", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newTestRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Complete(2621440)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Status() != models.RunComplete {
			t.Errorf("expected complete status, got %s", retrieved.Status())
		}
		if retrieved.Bytes() != 2621440 {
			t.Errorf("expected byte count to persist, got %d", retrieved.Bytes())
		}
		if retrieved.CompletedAt() == nil {
			t.Error("expected completion timestamp to persist")
		}
	})

	t.Run("Update records failure", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newTestRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Fail(8192, errors.New("connection reset"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Status() != models.RunFailed {
			t.Errorf("expected failed status, got %s", retrieved.Status())
		}
		if retrieved.ErrorMessage() != "connection reset" {
			t.Errorf("expected error message to persist, got %q", retrieved.ErrorMessage())
		}
	})

	t.Run("List filters by status", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		done := newTestRun()
		if err := repo.Create(done); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		done.Complete(1024)
		if err := repo.Update(done); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		pending := newTestRun()
		if err := repo.Create(pending); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		complete, err := repo.List(map[string]any{"status": "complete"})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(complete) != 1 || complete[0].ID() != done.ID() {
			t.Errorf("expected only the completed run, got %d runs", len(complete))
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 runs, got %d", len(all))
		}
	})

	t.Run("Delete soft deletes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := newTestRun()

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("expected deleted run to be hidden from Get")
		}
	})
}

func TestTrackRepository(t *testing.T) {
	newTrack := func() *models.CachedTrack {
		return models.NewCachedTrack(
			"spotify:track:3QmLC9gCWbqvn7cUKWivq1", "Test Track", "Test Artist",
			"Test Album", 210000, 2)
	}

	t.Run("Create and GetByTrackID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		cached := newTrack()

		if err := repo.Create(cached); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByTrackID(cached.TrackID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Name() != "Test Track" || retrieved.DurationMS() != 210000 {
			t.Errorf("track fields did not round trip: %s %d", retrieved.Name(), retrieved.DurationMS())
		}
	})

	t.Run("Upsert replaces the existing snapshot", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		first := newTrack()
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		second := models.NewCachedTrack(
			first.TrackID(), "Renamed Track", "Test Artist", "Test Album", 210000, 3)
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert track again: %v", err)
		}

		retrieved, err := repo.GetByTrackID(first.TrackID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Name() != "Renamed Track" || retrieved.FileCount() != 3 {
			t.Errorf("expected upsert to replace fields, got %s %d", retrieved.Name(), retrieved.FileCount())
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected a single cached row, got %d", len(all))
		}
	})
}
