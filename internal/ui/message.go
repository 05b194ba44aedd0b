package ui

import (
	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/tasks"
	"github.com/desertthunder/spotgrab/internal/track"
)

// sessionReadyMsg carries the results of the bootstrap stage: an
// authenticated session and the validated metadata snapshot.
type sessionReadyMsg struct {
	session services.Session
	id      track.ID
	meta    *track.Metadata
	err     error
}

// progressUpdateMsg wraps a pipeline progress event for the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// downloadCompleteMsg signals the end of the transfer stage.
type downloadCompleteMsg struct {
	summary *tasks.DownloadSummary
	err     error
}
