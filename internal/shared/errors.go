package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrCredentialsNotFound  = fmt.Errorf("credentials file not found")
	ErrCredentialsMalformed = fmt.Errorf("credentials file malformed")
	ErrAuthRejected         = fmt.Errorf("authentication rejected by gateway")
	ErrNotAuthenticated     = fmt.Errorf("not authenticated")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Track reference errors
	ErrInvalidTrackURI = fmt.Errorf("invalid track URI")

	// Metadata errors
	ErrMetadataFetch    = fmt.Errorf("metadata fetch failed")
	ErrNoAudioAvailable = fmt.Errorf("no audio files available for track")

	// Stream errors
	ErrNoMatchingFormat = fmt.Errorf("no audio format satisfies quality policy")
	ErrStreamOpen       = fmt.Errorf("failed to open content stream")
	ErrStreamRead       = fmt.Errorf("stream read failed")

	// Filesystem errors
	ErrFileWrite = fmt.Errorf("local write failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
