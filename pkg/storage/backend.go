package storage

import (
	"context"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the filesystem operations the pipeline needs.
// All paths are absolute; the backend refuses to touch anything outside
// its root.
type Backend interface {
	// Root returns the absolute root directory
	Root() string

	// Walk returns the files under the root whose extension is in exts,
	// in depth-first listing order. A directory that cannot be listed
	// aborts the walk with a *TraversalError.
	Walk(ctx context.Context, exts []string) ([]string, error)

	// Dirs returns the root and every directory below it
	Dirs(ctx context.Context) ([]string, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Remove deletes a single regular file
	Remove(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}

// TraversalError reports a directory or entry the walker could not read.
// It is fatal to the run.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return "cannot traverse " + e.Path + ": " + e.Err.Error()
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}
