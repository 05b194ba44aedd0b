package track

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spotgrab/internal/shared"
)

func TestParseURI(t *testing.T) {
	t.Run("Valid URI", func(t *testing.T) {
		id, err := ParseURI("spotify:track:3QmLC9gCWbqvn7cUKWivq1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if id.Hex() != "7e529207381945d189ad0c5473941019" {
			t.Errorf("unexpected hex id: %s", id.Hex())
		}

		if len(id) != IDLength {
			t.Errorf("expected %d byte id, got %d", IDLength, len(id))
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		first, err := ParseURI("spotify:track:3QmLC9gCWbqvn7cUKWivq1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		second, err := ParseURI("spotify:track:3QmLC9gCWbqvn7cUKWivq1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if first != second {
			t.Errorf("repeated parses differ: %s vs %s", first, second)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		uri := "spotify:track:3QmLC9gCWbqvn7cUKWivq1"
		id, err := ParseURI(uri)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if id.URI() != uri {
			t.Errorf("expected %s, got %s", uri, id.URI())
		}
	})

	t.Run("Malformed URIs", func(t *testing.T) {
		cases := []struct {
			name string
			uri  string
		}{
			{"empty", ""},
			{"too few segments", "spotify:track"},
			{"too many segments", "spotify:track:abc:def"},
			{"wrong kind", "spotify:album:3QmLC9gCWbqvn7cUKWivq1"},
			{"empty id", "spotify:track:"},
			{"invalid characters", "spotify:track:not/base62!!!!!!!chars"},
			{"short id", "spotify:track:abc"},
			{"21 characters", "spotify:track:3QmLC9gCWbqvn7cUKWivq"},
			{"23 characters", "spotify:track:3QmLC9gCWbqvn7cUKWivq12"},
			{"overflows 16 bytes", "spotify:track:" + strings.Repeat("Z", 22)},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := ParseURI(tc.uri); !errors.Is(err, shared.ErrInvalidTrackURI) {
					t.Errorf("expected ErrInvalidTrackURI, got %v", err)
				}
			})
		}
	})
}

func TestFormat(t *testing.T) {
	t.Run("Known Names", func(t *testing.T) {
		cases := map[Format]string{
			OggVorbis96:  "OGG_VORBIS_96",
			OggVorbis320: "OGG_VORBIS_320",
			MP3_160Enc:   "MP3_160_ENC",
			AAC48:        "AAC_48",
			FLAC24Bit:    "FLAC_FLAC_24BIT",
		}

		for format, want := range cases {
			if got := format.String(); got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		}
	})

	t.Run("Unknown Codes Are Representable", func(t *testing.T) {
		f := Format(99)
		if f.Known() {
			t.Error("format 99 should not be known")
		}
		if got := f.String(); got != "UNKNOWN(99)" {
			t.Errorf("expected UNKNOWN(99), got %s", got)
		}
	})

	t.Run("Extensions", func(t *testing.T) {
		cases := map[Format]string{
			OggVorbis320: ".ogg",
			MP3_256:      ".mp3",
			AAC24:        ".m4a",
			FLAC:         ".flac",
			Format(99):   ".audio",
		}

		for format, want := range cases {
			if got := format.Extension(); got != want {
				t.Errorf("%s: expected %s, got %s", format, want, got)
			}
		}
	})
}

func TestQualityPolicy(t *testing.T) {
	vorbisSet := []AudioFile{
		{Format: OggVorbis96, FileID: "aa01"},
		{Format: OggVorbis160, FileID: "aa02"},
		{Format: OggVorbis320, FileID: "aa03"},
	}

	t.Run("Selects Requested Tier", func(t *testing.T) {
		policy := QualityPolicy{Tier: QualityVeryHigh, VorbisOnly: true}

		selected, ok := policy.Select(vorbisSet)
		if !ok {
			t.Fatal("expected a selection")
		}
		if selected.Format != OggVorbis320 {
			t.Errorf("expected OGG_VORBIS_320, got %s", selected.Format)
		}
		if selected.FileID != "aa03" {
			t.Errorf("expected file aa03, got %s", selected.FileID)
		}
	})

	t.Run("Single Descriptor At Highest Tier", func(t *testing.T) {
		files := []AudioFile{{Format: OggVorbis320, FileID: "bb01"}}
		policy := QualityPolicy{Tier: QualityVeryHigh, VorbisOnly: true}

		selected, ok := policy.Select(files)
		if !ok {
			t.Fatal("expected a selection")
		}
		if selected.FileID != "bb01" {
			t.Errorf("expected file bb01, got %s", selected.FileID)
		}
	})

	t.Run("No Match Without Fallback", func(t *testing.T) {
		files := []AudioFile{{Format: OggVorbis96, FileID: "cc01"}}
		policy := QualityPolicy{Tier: QualityVeryHigh, VorbisOnly: true}

		if _, ok := policy.Select(files); ok {
			t.Error("expected no selection when tier is absent and fallback disabled")
		}
	})

	t.Run("Fallback Descends Tiers", func(t *testing.T) {
		files := []AudioFile{{Format: OggVorbis96, FileID: "dd01"}}
		policy := QualityPolicy{Tier: QualityVeryHigh, VorbisOnly: true, AllowFallback: true}

		selected, ok := policy.Select(files)
		if !ok {
			t.Fatal("expected fallback selection")
		}
		if selected.Format != OggVorbis96 {
			t.Errorf("expected OGG_VORBIS_96, got %s", selected.Format)
		}
	})

	t.Run("Non Vorbis Families", func(t *testing.T) {
		files := []AudioFile{
			{Format: MP3_320, FileID: "ee01"},
			{Format: AAC48, FileID: "ee02"},
		}

		t.Run("excluded when vorbis only", func(t *testing.T) {
			policy := QualityPolicy{Tier: QualityVeryHigh, VorbisOnly: true}
			if _, ok := policy.Select(files); ok {
				t.Error("expected no selection from non-vorbis set")
			}
		})

		t.Run("matched otherwise", func(t *testing.T) {
			policy := QualityPolicy{Tier: QualityVeryHigh}
			selected, ok := policy.Select(files)
			if !ok {
				t.Fatal("expected a selection")
			}
			if selected.Format != MP3_320 {
				t.Errorf("expected MP3_320, got %s", selected.Format)
			}
		})
	})

	t.Run("Deterministic", func(t *testing.T) {
		policy := QualityPolicy{Tier: QualityHigh, VorbisOnly: true}

		first, _ := policy.Select(vorbisSet)
		second, _ := policy.Select(vorbisSet)
		if first != second {
			t.Errorf("repeated selection differs: %v vs %v", first, second)
		}
	})
}
