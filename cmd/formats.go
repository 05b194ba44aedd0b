package main

import (
	"context"

	"github.com/desertthunder/spotgrab/internal/track"
	"github.com/urfave/cli/v3"
)

// Formats lists the known audio format codes with their container and
// Vorbis membership.
func (r *Runner) Formats(ctx context.Context, cmd *cli.Command) error {
	formats := track.KnownFormats()

	if cmd.Bool("json") {
		type formatView struct {
			Code      int    `json:"code"`
			Name      string `json:"name"`
			Extension string `json:"extension"`
			Vorbis    bool   `json:"vorbis"`
		}
		views := make([]formatView, 0, len(formats))
		for _, f := range formats {
			views = append(views, formatView{
				Code:      int(f),
				Name:      f.String(),
				Extension: f.Extension(),
				Vorbis:    f.Vorbis(),
			})
		}
		return r.writeJSON(views, true)
	}

	r.writePlainHeader("Known Audio Formats")
	r.writePlain("%-5s %-18s %-6s %s\n", "CODE", "NAME", "EXT", "VORBIS")
	for _, f := range formats {
		vorbis := ""
		if f.Vorbis() {
			vorbis = "✓"
		}
		r.writePlain("%-5d %-18s %-6s %s\n", int(f), f, f.Extension(), vorbis)
	}
	return nil
}
