package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/tasks"
	"github.com/desertthunder/spotgrab/internal/track"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// Download runs the retrieval pipeline for one track URI.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return fmt.Errorf("%w: track URI", shared.ErrMissingArgument)
	}

	config := r.loadConfig(cmd)
	policy, err := r.qualityPolicy(cmd, config)
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = config.Downloads.OutputDir
	}
	preload := cmd.Bool("preload") || config.Downloads.Preload

	runs, trackStore := r.openStores()
	engine := tasks.NewDownloadEngine(r.sessions, runs, trackStore, r.logger)

	asJSON := cmd.Bool("json")
	prog := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.reportProgress(prog, asJSON)
	}()

	result, err := engine.Run(ctx, prog, tasks.RunOpts{
		URI:                    uri,
		CredentialsPath:        cmd.StringArg("credentials"),
		DefaultCredentialsPath: config.Credentials.Path,
		Policy:                 policy,
		OutputDir:              outputDir,
		ChunkSize:              config.Downloads.ChunkSizeKB * 1024,
		ProgressEvery:          int64(config.Downloads.ProgressEveryMB) << 20,
		Preload:                preload,
		Halt:                   ctx.Done(),
	})
	close(prog)
	wg.Wait()

	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(map[string]any{
			"track_id":    result.TrackID.Hex(),
			"uri":         result.TrackID.URI(),
			"name":        result.Metadata.Name,
			"artists":     result.Metadata.ArtistLine(),
			"format":      result.Selected.Format.String(),
			"destination": result.Summary.Path,
			"bytes":       result.Summary.Bytes,
			"elapsed_ms":  result.Summary.Elapsed.Milliseconds(),
			"key_time_ms": result.Metrics.KeyFetchTime.Milliseconds(),
			"preloaded":   result.Metrics.PreloadedKey,
		}, true)
	}

	r.writePlainln("✓ Saved %s - %s", result.Metadata.ArtistLine(), result.Metadata.Name)
	r.writePlain("  Format: %s\n", result.Selected.Format)
	r.writePlain("  File:   %s (%s)\n", result.Summary.Path, shared.FormatBytes(result.Summary.Bytes))
	r.writePlain("  Time:   %s (key fetch %s)\n", result.Summary.Elapsed.Round(time.Millisecond), result.Metrics.KeyFetchTime)
	return nil
}

// reportProgress drains pipeline updates, rendering byte milestones as a
// progress bar and everything else as plain lines. JSON mode stays quiet so
// stdout carries only the final document.
func (r *Runner) reportProgress(prog <-chan tasks.ProgressUpdate, quiet bool) {
	var bar *progressbar.ProgressBar

	for update := range prog {
		if quiet {
			continue
		}

		switch update.Phase {
		case tasks.Downloading:
			if p, ok := update.Data.(tasks.DownloadProgress); ok {
				if bar == nil {
					bar = progressbar.DefaultBytes(-1, "downloading")
				}
				bar.Set64(p.Bytes)
				continue
			}
			r.writePlain("%s\n", update.Message)
		case tasks.Done:
			if bar != nil {
				bar.Finish()
				bar = nil
				r.writePlain("\n")
			}
		case tasks.Failed:
			if bar != nil {
				bar.Exit()
				bar = nil
				r.writePlain("\n")
			}
			r.writePlain("%s\n", update.Message)
		default:
			r.writePlain("%s\n", update.Message)
		}
	}
}

// qualityPolicy builds the stream selection policy from flags and config.
func (r *Runner) qualityPolicy(cmd *cli.Command, config *shared.Config) (track.QualityPolicy, error) {
	name := cmd.String("quality")
	if name == "" {
		name = config.Downloads.Quality
	}
	if name == "" {
		name = "very_high"
	}

	tier, err := track.ParseQuality(name)
	if err != nil {
		return track.QualityPolicy{}, err
	}

	return track.QualityPolicy{
		Tier:          tier,
		VorbisOnly:    cmd.Bool("vorbis-only") || config.Downloads.VorbisOnly,
		AllowFallback: cmd.Bool("fallback") || config.Downloads.AllowFallback,
	}, nil
}
