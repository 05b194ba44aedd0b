package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for track download.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
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

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spotgrab-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.sessions, ui.Options{
		URI:                    uri,
		DefaultCredentialsPath: config.Credentials.Path,
		Policy:                 policy,
		OutputDir:              outputDir,
		Preload:                config.Downloads.Preload,
	}, fileLogger)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
