package tasks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/desertthunder/spotgrab/internal/shared"
)

const (
	// DefaultChunkSize is the read size for the download loop.
	DefaultChunkSize = 128 * 1024
	// DefaultProgressEvery is the byte granularity for milestone updates.
	DefaultProgressEvery int64 = 1 << 20
)

// DownloadSummary reports the outcome of a chunked transfer. It is populated
// on failure too, so callers can see how many bytes reached disk before the
// error.
type DownloadSummary struct {
	Path    string
	Bytes   int64
	Elapsed time.Duration
}

// Download copies src to dest in fixed-size chunks, emitting a milestone
// update each time the running total crosses a multiple of progressEvery.
//
// A partial file is retained on failure; the summary carries the byte count
// written before the error. Read failures wrap [shared.ErrStreamRead] and
// write failures wrap [shared.ErrFileWrite] so callers can tell which side
// of the transfer broke.
func Download(src io.Reader, dest string, chunkSize int, progressEvery int64, prog chan<- ProgressUpdate) (*DownloadSummary, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}

	start := time.Now()
	summary := &DownloadSummary{Path: dest}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		summary.Elapsed = time.Since(start)
		return summary, fmt.Errorf("%w: open %s: %v", shared.ErrFileWrite, dest, err)
	}
	defer out.Close()

	buf := make([]byte, chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				summary.Elapsed = time.Since(start)
				return summary, fmt.Errorf("%w: %v", shared.ErrFileWrite, werr)
			}
			before := summary.Bytes
			summary.Bytes += int64(n)
			if before/progressEvery != summary.Bytes/progressEvery {
				sendProgress(prog, milestoneUpdate(summary.Bytes))
			}
		}
		if rerr != nil {
			summary.Elapsed = time.Since(start)
			if errors.Is(rerr, io.EOF) {
				break
			}
			return summary, fmt.Errorf("%w: %v", shared.ErrStreamRead, rerr)
		}
	}

	if err := out.Sync(); err != nil {
		return summary, fmt.Errorf("%w: %v", shared.ErrFileWrite, err)
	}
	return summary, nil
}

// sendProgress delivers an update without blocking. A nil or full channel
// drops the update rather than stalling the transfer.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
