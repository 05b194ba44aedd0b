package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotgrab/internal/shared"
)

// CredentialKind tags the two credential source variants.
type CredentialKind int

const (
	// StoredFile authenticates with an on-disk credential JSON file.
	StoredFile CredentialKind = iota
	// Interactive authenticates via the browser OAuth flow.
	Interactive
)

func (k CredentialKind) String() string {
	switch k {
	case StoredFile:
		return "stored_file"
	case Interactive:
		return "interactive"
	default:
		return "unknown"
	}
}

// CredentialSource identifies where session credentials come from.
// Chosen once per run and immutable thereafter.
type CredentialSource struct {
	Kind CredentialKind
	Path string // set only for StoredFile
}

// ResolveCredentialSource picks exactly one credential source.
//
// Policy, first match wins: a supplied path that exists; a configured default
// path that exists; otherwise interactive. A supplied or configured path that
// does not exist logs a warning and falls through. The existence check is the
// only side effect.
func ResolveCredentialSource(suppliedPath, configuredPath string, logger *log.Logger) CredentialSource {
	for _, path := range []string{suppliedPath, configuredPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return CredentialSource{Kind: StoredFile, Path: path}
		}
		logger.Warn("credentials file not found, falling through", "path", path)
	}

	return CredentialSource{Kind: Interactive}
}

// StoredCredentials is the decoded, shape-independent view of a credential file.
type StoredCredentials struct {
	Username string
	AuthType string
	AuthData []byte
	Shape    string // which on-disk encoding was detected
}

// The two supported on-disk encodings, distinguished by field names.
// pythonShape is the username/type/credentials form; rustShape is the
// username/auth_type/auth_data form.
type pythonShape struct {
	Username    string `json:"username"`
	Type        string `json:"type"`
	Credentials string `json:"credentials"`
}

type rustShape struct {
	Username string `json:"username"`
	AuthType string `json:"auth_type"`
	AuthData string `json:"auth_data"`
}

// ShapePython and ShapeRust name the detected credential encodings.
const (
	ShapePython = "username/type/credentials"
	ShapeRust   = "username/auth_type/auth_data"
)

// DecodeStoredCredentials auto-detects the credential file encoding.
//
// Each known shape is attempted in a fixed order; decoding fails only when
// none match. Callers never indicate which shape they hold.
func DecodeStoredCredentials(data []byte) (*StoredCredentials, error) {
	var py pythonShape
	if err := json.Unmarshal(data, &py); err == nil && py.Username != "" && py.Type != "" && py.Credentials != "" {
		blob, err := base64.StdEncoding.DecodeString(py.Credentials)
		if err != nil {
			return nil, fmt.Errorf("%w: credentials field is not base64: %v", shared.ErrCredentialsMalformed, err)
		}
		return &StoredCredentials{
			Username: py.Username,
			AuthType: py.Type,
			AuthData: blob,
			Shape:    ShapePython,
		}, nil
	}

	var rs rustShape
	if err := json.Unmarshal(data, &rs); err == nil && rs.Username != "" && rs.AuthType != "" && rs.AuthData != "" {
		blob, err := base64.StdEncoding.DecodeString(rs.AuthData)
		if err != nil {
			return nil, fmt.Errorf("%w: auth_data field is not base64: %v", shared.ErrCredentialsMalformed, err)
		}
		return &StoredCredentials{
			Username: rs.Username,
			AuthType: rs.AuthType,
			AuthData: blob,
			Shape:    ShapeRust,
		}, nil
	}

	return nil, fmt.Errorf("%w: no known credential encoding matched", shared.ErrCredentialsMalformed)
}

// ReadStoredCredentials loads and decodes a credential file from disk.
func ReadStoredCredentials(path string) (*StoredCredentials, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeStoredCredentials(data)
}
