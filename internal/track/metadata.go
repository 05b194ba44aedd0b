package track

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Format enumerates the known codec/bitrate combinations advertised by the gateway.
//
// The numeric values mirror the gateway's metadata wire codes. Codes outside
// the known set are preserved rather than rejected and render as UNKNOWN(n).
type Format int

const (
	OggVorbis96  Format = 0
	OggVorbis160 Format = 1
	OggVorbis320 Format = 2
	MP3_256      Format = 3
	MP3_320      Format = 4
	MP3_160      Format = 5
	MP3_96       Format = 6
	MP3_160Enc   Format = 7
	AAC24        Format = 8
	AAC48        Format = 9
	FLAC         Format = 16
	FLAC24Bit    Format = 22
)

var formatNames = map[Format]string{
	OggVorbis96:  "OGG_VORBIS_96",
	OggVorbis160: "OGG_VORBIS_160",
	OggVorbis320: "OGG_VORBIS_320",
	MP3_256:      "MP3_256",
	MP3_320:      "MP3_320",
	MP3_160:      "MP3_160",
	MP3_96:       "MP3_96",
	MP3_160Enc:   "MP3_160_ENC",
	AAC24:        "AAC_24",
	AAC48:        "AAC_48",
	FLAC:         "FLAC_FLAC",
	FLAC24Bit:    "FLAC_FLAC_24BIT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(f))
}

// Known reports whether the format code belongs to the closed known set.
func (f Format) Known() bool {
	_, ok := formatNames[f]
	return ok
}

// Vorbis reports whether the format is an OGG Vorbis encoding.
func (f Format) Vorbis() bool {
	return f == OggVorbis96 || f == OggVorbis160 || f == OggVorbis320
}

// Extension returns the container file extension for the format family.
func (f Format) Extension() string {
	switch {
	case f.Vorbis():
		return ".ogg"
	case f == MP3_256 || f == MP3_320 || f == MP3_160 || f == MP3_96 || f == MP3_160Enc:
		return ".mp3"
	case f == AAC24 || f == AAC48:
		return ".m4a"
	case f == FLAC || f == FLAC24Bit:
		return ".flac"
	default:
		return ".audio"
	}
}

// KnownFormats returns the closed format set in wire-code order for display.
func KnownFormats() []Format {
	return []Format{
		OggVorbis96, OggVorbis160, OggVorbis320,
		MP3_256, MP3_320, MP3_160, MP3_96, MP3_160Enc,
		AAC24, AAC48,
		FLAC, FLAC24Bit,
	}
}

// AudioFile describes one downloadable encoding of a track.
type AudioFile struct {
	Format Format `json:"format"`
	FileID string `json:"file_id"` // hex-encoded gateway file identifier
}

// Validate checks that the file identifier is well-formed hex.
func (a AudioFile) Validate() error {
	if a.FileID == "" {
		return fmt.Errorf("empty file id")
	}
	if _, err := hex.DecodeString(a.FileID); err != nil {
		return fmt.Errorf("file id is not hex: %w", err)
	}
	return nil
}

// Metadata is an immutable snapshot of a track's gateway metadata.
type Metadata struct {
	Name       string      `json:"name"`
	Artists    []string    `json:"artists"`
	Album      string      `json:"album,omitempty"`
	DurationMS int         `json:"duration_ms"`
	Files      []AudioFile `json:"files"`
}

// ArtistLine joins the artist names for display.
func (m *Metadata) ArtistLine() string {
	return strings.Join(m.Artists, ", ")
}

// UnmarshalJSON guards against negative durations from the wire.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type alias Metadata
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.DurationMS < 0 {
		return fmt.Errorf("negative track duration %d", raw.DurationMS)
	}
	*m = Metadata(raw)
	return nil
}
