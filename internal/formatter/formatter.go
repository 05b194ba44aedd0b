// package formatter provides functions to export download history to various formats (CSV, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/spotgrab/internal/models"
	"github.com/desertthunder/spotgrab/internal/shared"
)

// RunView is the serializable projection of a download run used for exports.
type RunView struct {
	ID          string `json:"id"`
	TrackID     string `json:"track_id"`
	TrackName   string `json:"track_name"`
	Artists     string `json:"artists"`
	Format      string `json:"format"`
	Quality     string `json:"quality"`
	Status      string `json:"status"`
	Bytes       int64  `json:"bytes"`
	Destination string `json:"destination"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// NewRunView projects a run record into its export shape.
func NewRunView(run *models.DownloadRun) RunView {
	view := RunView{
		ID:          run.ID(),
		TrackID:     run.TrackID(),
		TrackName:   run.TrackName(),
		Artists:     run.Artists(),
		Format:      run.Format(),
		Quality:     run.Quality(),
		Status:      string(run.Status()),
		Bytes:       run.Bytes(),
		Destination: run.Destination(),
		Error:       run.ErrorMessage(),
		StartedAt:   run.StartedAt().Format(time.RFC3339),
	}
	if completed := run.CompletedAt(); completed != nil {
		view.CompletedAt = completed.Format(time.RFC3339)
	}
	return view
}

// ExportToCSV converts download runs to CSV with columns: ID, Track, Artists, Format, Quality, Status, Bytes, Destination, Started, Completed
func ExportToCSV(runs []*models.DownloadRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track", "Artists", "Format", "Quality", "Status", "Bytes", "Destination", "Started", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		view := NewRunView(run)
		record := []string{
			view.ID,
			view.TrackName,
			view.Artists,
			view.Format,
			view.Quality,
			view.Status,
			strconv.FormatInt(view.Bytes, 10),
			view.Destination,
			view.StartedAt,
			view.CompletedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts download runs to an indented JSON array.
func ExportToJSON(runs []*models.DownloadRun) ([]byte, error) {
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, NewRunView(run))
	}
	return shared.MarshalJSON(views, true)
}

// ExportToText converts download runs to a plain text listing.
func ExportToText(runs []*models.DownloadRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Download history: %d runs\n\n", len(runs)))
	for i, run := range runs {
		status := string(run.Status())
		size := shared.FormatBytes(run.Bytes())
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s, %s, %s]\n", i+1, run.Artists(), run.TrackName(), run.Format(), size, status))
		buf.WriteString(fmt.Sprintf("   %s\n", run.Destination()))
		if msg := run.ErrorMessage(); msg != "" {
			buf.WriteString(fmt.Sprintf("   error: %s\n", msg))
		}
	}

	return buf.Bytes(), nil
}

// WriteExport serializes runs in the named format ("csv", "json" or "text")
// and writes the result to path.
//
// Defaults to history.<ext> in the working directory when path is empty.
func WriteExport(runs []*models.DownloadRun, format, path string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case "csv":
		data, err = ExportToCSV(runs)
		ext = ".csv"
	case "json", "":
		data, err = ExportToJSON(runs)
		ext = ".json"
	case "text", "txt":
		data, err = ExportToText(runs)
		ext = ".txt"
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "history" + ext
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
