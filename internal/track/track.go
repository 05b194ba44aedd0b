// package track implements Spotify track references, metadata models, and quality selection.
package track

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/desertthunder/spotgrab/internal/shared"
)

// IDLength is the fixed byte length of a decoded track identifier.
const IDLength = 16

// Base62Length is the fixed character length of the base62 identifier segment.
const Base62Length = 22

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var base62Index = func() map[byte]int64 {
	m := make(map[byte]int64, len(base62Alphabet))
	for i := 0; i < len(base62Alphabet); i++ {
		m[base62Alphabet[i]] = int64(i)
	}
	return m
}()

// ID is a normalized 16-byte track identifier decoded from a spotify:track: URI.
type ID [IDLength]byte

// ParseURI parses a URI of the form "spotify:track:<base62-id>" into an [ID].
//
// The URI must split into exactly three colon-separated segments, the middle
// segment must be "track", and the final segment must be exactly 22 base62
// characters decoding into 16 bytes. ParseURI performs no I/O.
func ParseURI(uri string) (ID, error) {
	var id ID

	parts := strings.Split(uri, ":")
	if len(parts) != 3 {
		return id, fmt.Errorf("%w: expected scheme:track:id, got %q", shared.ErrInvalidTrackURI, uri)
	}

	if parts[1] != "track" {
		return id, fmt.Errorf("%w: unsupported reference kind %q", shared.ErrInvalidTrackURI, parts[1])
	}

	if len(parts[2]) != Base62Length {
		return id, fmt.Errorf("%w: identifier must be %d base62 characters, got %d", shared.ErrInvalidTrackURI, Base62Length, len(parts[2]))
	}

	decoded, err := decodeBase62(parts[2])
	if err != nil {
		return id, fmt.Errorf("%w: %v", shared.ErrInvalidTrackURI, err)
	}

	copy(id[IDLength-len(decoded):], decoded)
	return id, nil
}

// decodeBase62 decodes a base62 string into at most 16 bytes.
func decodeBase62(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty identifier segment")
	}

	n := new(big.Int)
	base := big.NewInt(62)
	for i := 0; i < len(s); i++ {
		v, ok := base62Index[s[i]]
		if !ok {
			return nil, fmt.Errorf("invalid base62 character %q", s[i])
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(v))
	}

	decoded := n.Bytes()
	if len(decoded) > IDLength {
		return nil, fmt.Errorf("identifier overflows %d bytes", IDLength)
	}

	return decoded, nil
}

// Hex returns the lowercase hex encoding of the identifier.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// URI reconstructs the canonical spotify:track: URI for the identifier.
func (id ID) URI() string {
	return "spotify:track:" + encodeBase62(id)
}

func (id ID) String() string {
	return id.Hex()
}

// encodeBase62 encodes the identifier as a 22-character base62 string.
func encodeBase62(id ID) string {
	n := new(big.Int).SetBytes(id[:])
	base := big.NewInt(62)
	mod := new(big.Int)

	buf := make([]byte, 22)
	for i := 21; i >= 0; i-- {
		n.DivMod(n, base, mod)
		buf[i] = base62Alphabet[mod.Int64()]
	}
	return string(buf)
}
