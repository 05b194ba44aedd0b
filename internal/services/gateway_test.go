package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/spotgrab/internal/shared"
	"github.com/desertthunder/spotgrab/internal/track"
)

func testCredentialsFile(t *testing.T) string {
	t.Helper()
	blob := base64.StdEncoding.EncodeToString([]byte("auth"))
	path := filepath.Join(t.TempDir(), "credentials.json")
	body := `{"username": "alice", "type": "1", "credentials": "` + blob + `"}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return path
}

func TestGatewayService(t *testing.T) {
	t.Run("Authenticate Stored", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/session" || r.Method != http.MethodPost {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.Write([]byte(`{"session_id": "s-1", "username": "alice"}`))
			}))
			defer srv.Close()

			svc := NewGatewayService(GatewayOpts{BaseURL: srv.URL})
			session, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: testCredentialsFile(t)})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if session.Username() != "alice" {
				t.Errorf("expected username alice, got %s", session.Username())
			}
		})

		t.Run("missing file is a local error", func(t *testing.T) {
			svc := NewGatewayService(GatewayOpts{BaseURL: "http://unused.invalid"})
			_, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: "/does/not/exist.json"})
			if !errors.Is(err, shared.ErrCredentialsNotFound) {
				t.Errorf("expected ErrCredentialsNotFound, got %v", err)
			}
		})

		t.Run("malformed file is a local error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			os.WriteFile(path, []byte("not credentials"), 0600)

			svc := NewGatewayService(GatewayOpts{BaseURL: "http://unused.invalid"})
			_, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: path})
			if !errors.Is(err, shared.ErrCredentialsMalformed) {
				t.Errorf("expected ErrCredentialsMalformed, got %v", err)
			}
		})

		t.Run("remote rejection is distinguished", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
			}))
			defer srv.Close()

			svc := NewGatewayService(GatewayOpts{BaseURL: srv.URL})
			_, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: testCredentialsFile(t)})
			if !errors.Is(err, shared.ErrAuthRejected) {
				t.Errorf("expected ErrAuthRejected, got %v", err)
			}
			if errors.Is(err, shared.ErrCredentialsMalformed) {
				t.Error("remote rejection must not read as a malformed file")
			}
		})
	})

	t.Run("Authenticate Interactive", func(t *testing.T) {
		t.Run("without authorizer fails", func(t *testing.T) {
			svc := NewGatewayService(GatewayOpts{})
			if _, err := svc.Authenticate(context.Background(), CredentialSource{Kind: Interactive}); err == nil {
				t.Error("expected error when no authorizer is configured")
			}
		})
	})

	t.Run("TrackMetadata", func(t *testing.T) {
		id, _ := track.ParseURI("spotify:track:3QmLC9gCWbqvn7cUKWivq1")

		newAuthedSession := func(t *testing.T, handler http.HandlerFunc) Session {
			t.Helper()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/session" {
					w.Write([]byte(`{"session_id": "s-1", "username": "alice"}`))
					return
				}
				handler(w, r)
			}))
			t.Cleanup(srv.Close)

			svc := NewGatewayService(GatewayOpts{BaseURL: srv.URL})
			session, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: testCredentialsFile(t)})
			if err != nil {
				t.Fatalf("failed to authenticate: %v", err)
			}
			return session
		}

		t.Run("success", func(t *testing.T) {
			session := newAuthedSession(t, func(w http.ResponseWriter, r *http.Request) {
				want := "/session/s-1/metadata/track/" + id.Hex()
				if r.URL.Path != want {
					t.Errorf("expected path %s, got %s", want, r.URL.Path)
				}
				w.Write([]byte(`{"name": "Song", "artists": ["Artist"], "duration_ms": 1000, "files": [{"format": 2, "file_id": "ab01"}]}`))
			})

			meta, err := session.TrackMetadata(context.Background(), id)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if meta.Name != "Song" {
				t.Errorf("expected name Song, got %s", meta.Name)
			}
			if len(meta.Files) != 1 || meta.Files[0].Format != track.OggVorbis320 {
				t.Errorf("unexpected files: %+v", meta.Files)
			}
		})

		t.Run("remote failure", func(t *testing.T) {
			session := newAuthedSession(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			})

			if _, err := session.TrackMetadata(context.Background(), id); !errors.Is(err, shared.ErrMetadataFetch) {
				t.Errorf("expected ErrMetadataFetch, got %v", err)
			}
		})

		t.Run("unknown formats survive decoding", func(t *testing.T) {
			session := newAuthedSession(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"name": "Song", "artists": ["A"], "duration_ms": 1, "files": [{"format": 99, "file_id": "ab01"}]}`))
			})

			meta, err := session.TrackMetadata(context.Background(), id)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if meta.Files[0].Format.Known() {
				t.Error("format 99 should be unknown")
			}
			if meta.Files[0].Format.String() != "UNKNOWN(99)" {
				t.Errorf("unexpected format rendering: %s", meta.Files[0].Format)
			}
		})
	})

	t.Run("OpenStream", func(t *testing.T) {
		id, _ := track.ParseURI("spotify:track:3QmLC9gCWbqvn7cUKWivq1")
		file := track.AudioFile{Format: track.OggVorbis320, FileID: "ab01"}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/session" {
				w.Write([]byte(`{"session_id": "s-1", "username": "alice"}`))
				return
			}
			if r.URL.Query().Get("preload") != "true" {
				t.Errorf("expected preload=true, got %s", r.URL.Query().Get("preload"))
			}
			w.Header().Set("X-Audio-Key-Time-Ms", "42")
			w.Header().Set("X-Audio-Key-Preloaded", "true")
			w.Write([]byte("audio-bytes"))
		}))
		defer srv.Close()

		svc := NewGatewayService(GatewayOpts{BaseURL: srv.URL})
		session, err := svc.Authenticate(context.Background(), CredentialSource{Kind: StoredFile, Path: testCredentialsFile(t)})
		if err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}

		stream, err := session.OpenStream(context.Background(), id, file, StreamOptions{Preload: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer stream.Close()

		if stream.Metrics.KeyFetchTime != 42*time.Millisecond {
			t.Errorf("expected 42ms key fetch time, got %v", stream.Metrics.KeyFetchTime)
		}
		if !stream.Metrics.PreloadedKey {
			t.Error("expected preloaded key metric")
		}

		data, err := io.ReadAll(stream)
		if err != nil {
			t.Fatalf("failed to read stream: %v", err)
		}
		if string(data) != "audio-bytes" {
			t.Errorf("unexpected stream contents: %q", data)
		}
	})

	t.Run("Halt Signal Interrupts Reads", func(t *testing.T) {
		halt := make(chan struct{})
		stream := NewAudioStream(io.NopCloser(&neverEndingReader{}), track.OggVorbis320, "ab01", StreamMetrics{}, halt)

		buf := make([]byte, 8)
		if _, err := stream.Read(buf); err != nil {
			t.Fatalf("expected read to succeed before halt, got %v", err)
		}

		close(halt)
		if _, err := stream.Read(buf); err == nil {
			t.Error("expected read to fail after halt")
		}
	})
}

// neverEndingReader yields zeroed bytes forever.
type neverEndingReader struct{}

func (r *neverEndingReader) Read(p []byte) (int, error) {
	return len(p), nil
}
