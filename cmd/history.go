package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotgrab/internal/formatter"
	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded download runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	runs, err := r.listRuns(cmd.String("status"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]formatter.RunView, 0, len(runs))
		for _, run := range runs {
			views = append(views, formatter.NewRunView(run))
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("No download runs recorded.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Download History (%d runs)", len(runs)))
	for i, run := range runs {
		status := string(run.Status())
		r.writePlain("%d. %s - %s [%s, %s, %s]\n",
			i+1, run.Artists(), run.TrackName(), run.Format(), shared.FormatBytes(run.Bytes()), status)
		r.writePlain("   %s\n", run.Destination())
		if msg := run.ErrorMessage(); msg != "" {
			r.writePlain("   error: %s\n", msg)
		}
	}
	return nil
}

// HistoryExport writes the download history to a file in the chosen format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	runs, err := r.listRuns("")
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(runs, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("history exported", "path", path, "runs", len(runs))
	r.writePlain("✓ Exported %d runs to %s\n", len(runs), path)
	return nil
}

func (r *Runner) listRuns(status string) ([]*models.DownloadRun, error) {
	runRepo, _ := r.openStores()
	if runRepo == nil {
		return nil, fmt.Errorf("%w: history database unavailable, run 'spotgrab setup' first", shared.ErrMissingConfig)
	}

	criteria := map[string]any{}
	if status != "" {
		criteria["status"] = status
	}

	runs, err := runRepo.List(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list download runs: %w", err)
	}
	return runs, nil
}
