package song

import "errors"

// Service outcomes the transport layer maps to response categories. All are
// matched with errors.Is; downstream repository failures propagate wrapped and
// unmatched.
var (
	// ErrUnsupportedFormat signals a missing file or a file whose MIME type and
	// extension are both outside the accepted audio set.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidSong signals metadata that violates the field constraints.
	ErrInvalidSong = errors.New("invalid song metadata")
	// ErrDuplicateID signals a create with an id that already exists.
	ErrDuplicateID = errors.New("song id already exists")
	// ErrIDMismatch signals an update whose body id differs from the target id.
	ErrIDMismatch = errors.New("song id mismatch")
	// ErrNotFound signals an update or delete against a missing row.
	ErrNotFound = errors.New("song not found")
	// ErrStorageUnavailable signals a failed object-store call.
	ErrStorageUnavailable = errors.New("object storage unavailable")
)
