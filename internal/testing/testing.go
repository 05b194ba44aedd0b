// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotgrab/internal/services"
	"github.com/desertthunder/spotgrab/internal/track"
)

// MockSessionService is a test double for [services.SessionService]. A nil
// Session with a nil Err yields a default empty session.
type MockSessionService struct {
	Session  services.Session
	Err      error
	LastSrc  services.CredentialSource
	AuthCall int
}

func (m *MockSessionService) Authenticate(ctx context.Context, source services.CredentialSource) (services.Session, error) {
	m.AuthCall++
	m.LastSrc = source
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Session == nil {
		return &MockSession{}, nil
	}
	return m.Session, nil
}

func (m *MockSessionService) Name() string { return "mock" }

// MockSession is a scriptable [services.Session].
type MockSession struct {
	User     string
	Meta     *track.Metadata
	MetaErr  error
	Audio    []byte
	OpenErr  error
	Metrics  services.StreamMetrics
	Closed   bool
	LastFile track.AudioFile
}

func (m *MockSession) Username() string {
	if m.User == "" {
		return "test-user"
	}
	return m.User
}

func (m *MockSession) TrackMetadata(ctx context.Context, id track.ID) (*track.Metadata, error) {
	if m.MetaErr != nil {
		return nil, m.MetaErr
	}
	return m.Meta, nil
}

func (m *MockSession) OpenStream(ctx context.Context, id track.ID, file track.AudioFile, opts services.StreamOptions) (*services.AudioStream, error) {
	m.LastFile = file
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	body := io.NopCloser(bytes.NewReader(m.Audio))
	return services.NewAudioStream(body, file.Format, file.FileID, m.Metrics, opts.Halt), nil
}

func (m *MockSession) Close() error {
	m.Closed = true
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
