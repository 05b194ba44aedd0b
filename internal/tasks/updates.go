package tasks

import (
	"fmt"

	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/track"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current stage number within the run
	Total   int    // Total stages in the run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration.
//
// A run moves through the phases in order; any phase can transition directly
// to Failed, which is terminal.
type Phase int

const (
	Idle Phase = iota
	ResolvingCredentials
	Authenticating
	ParsingReference
	FetchingMetadata
	SelectingStream
	Downloading
	Done
	Failed
)

// stageTotal counts the reportable stages between Idle and Done.
const stageTotal = 6

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ResolvingCredentials:
		return "resolve_credentials"
	case Authenticating:
		return "authenticate"
	case ParsingReference:
		return "parse_reference"
	case FetchingMetadata:
		return "fetch_metadata"
	case SelectingStream:
		return "select_stream"
	case Downloading:
		return "download"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// DownloadProgress carries the running byte count for milestone updates.
//
// Bytes only ever increases; the download loop is its single writer.
type DownloadProgress struct {
	Bytes int64
}

func resolvingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvingCredentials,
		Step:    1,
		Total:   stageTotal,
		Message: "Resolving credential source...",
	}
}

func authenticatingUpdate(source services.CredentialSource) ProgressUpdate {
	msg := "Authenticating via browser OAuth flow..."
	if source.Kind == services.StoredFile {
		msg = fmt.Sprintf("Authenticating with stored credentials (%s)...", source.Path)
	}
	return ProgressUpdate{
		Phase:   Authenticating,
		Step:    2,
		Total:   stageTotal,
		Message: msg,
	}
}

func parsingUpdate(uri string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParsingReference,
		Step:    3,
		Total:   stageTotal,
		Message: fmt.Sprintf("Parsing track reference %s...", uri),
	}
}

func metadataUpdate(meta *track.Metadata) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingMetadata,
		Step:    4,
		Total:   stageTotal,
		Message: fmt.Sprintf("Fetched metadata: %s - %s (%d files)", meta.ArtistLine(), meta.Name, len(meta.Files)),
		Data:    meta,
	}
}

func fetchingMetadataUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingMetadata,
		Step:    4,
		Total:   stageTotal,
		Message: "Fetching track metadata...",
	}
}

func selectedUpdate(file track.AudioFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectingStream,
		Step:    5,
		Total:   stageTotal,
		Message: fmt.Sprintf("Selected %s (file %s)", file.Format, file.FileID),
		Data:    file,
	}
}

func downloadingUpdate(dest string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    6,
		Total:   stageTotal,
		Message: fmt.Sprintf("Downloading audio to %s...", dest),
	}
}

func milestoneUpdate(bytes int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    6,
		Total:   stageTotal,
		Message: fmt.Sprintf("Downloaded: %.1fMB", float64(bytes)/(1024*1024)),
		Data:    DownloadProgress{Bytes: bytes},
	}
}

func doneUpdate(summary *DownloadSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    stageTotal,
		Total:   stageTotal,
		Message: fmt.Sprintf("✓ Download complete! Total size: %.2fMB", float64(summary.Bytes)/(1024*1024)),
		Data:    summary,
	}
}

func failedUpdate(phase Phase, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Total:   stageTotal,
		Message: fmt.Sprintf("✗ %s failed: %v", phase, err),
		Data:    err,
	}
}
