package models

import "errors"

// Per-file error classes. Codec and storage layers wrap these so callers
// can classify failures with errors.Is.
var (
	// ErrCodec indicates the source could not be decoded or its metadata read
	ErrCodec = errors.New("codec error")
	// ErrWrite indicates the companion WebP could not be written
	ErrWrite = errors.New("write error")
	// ErrDelete indicates a source file could not be removed
	ErrDelete = errors.New("delete error")
	// ErrCompanionCollision indicates several sources map to one companion
	ErrCompanionCollision = errors.New("companion collision")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// FileError records a per-file failure in a report
type FileError struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// ErrorKind names the class of err for reporting
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCompanionCollision):
		return "collision"
	case errors.Is(err, ErrCodec):
		return "codec"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrDelete):
		return "delete"
	default:
		return "other"
	}
}
