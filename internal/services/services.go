// package services defines the session capability consumed by the download pipeline
package services

import (
	"context"
	"io"
	"time"

	"github.com/desertthunder/spotgrab/internal/track"
)

// SessionService establishes authenticated sessions with the playback gateway.
type SessionService interface {
	// Authenticate turns a credential source into an authenticated session.
	// Interactive sources block until the external flow completes or fails.
	// Authentication failures are fatal: no retry, no cross-source fallback.
	Authenticate(ctx context.Context, source CredentialSource) (Session, error)

	// Name returns the name of the backing gateway implementation.
	Name() string
}

// Session is an authenticated handle to the gateway, valid for one pipeline run.
//
// Stages only invoke operations on the session; they never mutate its internals.
type Session interface {
	// Username returns the authenticated account name.
	Username() string

	// TrackMetadata fetches the metadata snapshot for a track reference.
	TrackMetadata(ctx context.Context, id track.ID) (*track.Metadata, error)

	// OpenStream opens a forward-only byte stream for the selected descriptor.
	//
	// The descriptor must come from the same metadata snapshot that was
	// validated, which the pipeline guarantees by passing the selection
	// through rather than re-fetching.
	OpenStream(ctx context.Context, id track.ID, file track.AudioFile, opts StreamOptions) (*AudioStream, error)

	// Close releases the session handle.
	Close() error
}

// StreamOptions carries the caller-configurable stream-open flags.
type StreamOptions struct {
	// Preload requests eager decryption-key retrieval. Default false.
	Preload bool

	// Halt, when non-nil, interrupts an in-progress stream read when closed.
	Halt <-chan struct{}
}

// StreamMetrics is the gateway's snapshot of key-retrieval cost for a stream.
type StreamMetrics struct {
	KeyFetchTime time.Duration // time spent fetching the audio key
	PreloadedKey bool          // whether the key was already cached
}

// AudioStream is an open, sequential, forward-only audio byte source.
//
// Owned exclusively by the download loop while active; it must be fully
// drained or closed.
type AudioStream struct {
	Format  track.Format
	FileID  string
	Metrics StreamMetrics

	body io.ReadCloser
	halt <-chan struct{}
}

// NewAudioStream wraps a byte source with its stream metadata.
func NewAudioStream(body io.ReadCloser, format track.Format, fileID string, metrics StreamMetrics, halt <-chan struct{}) *AudioStream {
	return &AudioStream{
		Format:  format,
		FileID:  fileID,
		Metrics: metrics,
		body:    body,
		halt:    halt,
	}
}

// Read implements [io.Reader]. A closed halt channel surfaces as an error
// on the next read rather than a silent truncation. The halt channel is
// polled between reads only, so a halt raised while a read is blocked on the
// network takes effect once that read returns; the request context bounds
// how long that can take.
func (s *AudioStream) Read(p []byte) (int, error) {
	if s.halt != nil {
		select {
		case <-s.halt:
			return 0, io.ErrClosedPipe
		default:
		}
	}
	return s.body.Read(p)
}

// Close releases the underlying byte source.
func (s *AudioStream) Close() error {
	return s.body.Close()
}
