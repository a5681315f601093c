package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/webpnorris/pkg/models"
)

// ErrOutsideRoot is returned for paths that escape the backend root
var ErrOutsideRoot = errors.New("path is outside root")

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
	exclude  []string
}

// NewLocal creates a new local filesystem backend. Exclude patterns use
// doublestar syntax: a pattern without a slash matches the base name at any
// depth, a pattern with a slash matches the root-relative path, and a
// trailing slash restricts the pattern to directories.
func NewLocal(rootPath string, exclude []string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return &Local{rootPath: absPath, exclude: exclude}, nil
}

// Root returns the absolute root directory
func (l *Local) Root() string {
	return l.rootPath
}

// dirFrame is one level of the explicit traversal stack
type dirFrame struct {
	dir     string
	entries []fs.DirEntry
	next    int
}

// visit runs an iterative depth-first traversal. Entries are handled in the
// order os.ReadDir returns them and a subdirectory is fully traversed before
// the next sibling. Every entry is stat-ed, so symlinks to directories are
// descended like directories.
func (l *Local) visit(ctx context.Context, onDir func(dir string), onFile func(path string, info fs.FileInfo)) error {
	entries, err := os.ReadDir(l.rootPath)
	if err != nil {
		return &TraversalError{Path: l.rootPath, Err: err}
	}
	onDir(l.rootPath)
	stack := []*dirFrame{{dir: l.rootPath, entries: entries}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		p := filepath.Join(top.dir, entry.Name())
		if l.excluded(p, entry.IsDir()) {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return &TraversalError{Path: p, Err: err}
		}

		// a symlink resolving to a directory may match a dir-only pattern
		if info.IsDir() && !entry.IsDir() && l.excluded(p, true) {
			continue
		}

		if !info.IsDir() {
			onFile(p, info)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		children, err := os.ReadDir(p)
		if err != nil {
			return &TraversalError{Path: p, Err: err}
		}
		onDir(p)
		stack = append(stack, &dirFrame{dir: p, entries: children})
	}

	return nil
}

// Walk returns files under the root whose extension is in exts
func (l *Local) Walk(ctx context.Context, exts []string) ([]string, error) {
	allowed := models.ExtensionSet(exts)
	var files []string

	err := l.visit(ctx, func(string) {}, func(p string, info fs.FileInfo) {
		if models.MatchesExtension(info.Name(), allowed) {
			files = append(files, p)
		}
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Dirs returns the root and all directories below it
func (l *Local) Dirs(ctx context.Context) ([]string, error) {
	var dirs []string
	err := l.visit(ctx, func(d string) { dirs = append(dirs, d) }, func(string, fs.FileInfo) {})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// Excluded reports whether path matches an exclude pattern
func (l *Local) Excluded(path string, isDir bool) bool {
	return l.excluded(path, isDir)
}

func (l *Local) excluded(path string, isDir bool) bool {
	if len(l.exclude) == 0 {
		return false
	}

	rel, err := filepath.Rel(l.rootPath, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range l.exclude {
		if pattern == "" {
			continue
		}
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")
		if dirOnly && !isDir {
			continue
		}

		target := rel
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(pattern, target); ok {
			return true
		}
	}

	return false
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, path)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         path,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: relPath,
	}, nil
}

// Remove deletes a single regular file below the root
func (l *Local) Remove(ctx context.Context, path string) error {
	if !l.contains(path) {
		return fmt.Errorf("%w: %w: %s", models.ErrDelete, ErrOutsideRoot, path)
	}

	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrDelete, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: refusing to remove directory %s", models.ErrDelete, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDelete, err)
	}

	return nil
}

// contains reports whether path lies strictly below the root
func (l *Local) contains(path string) bool {
	rel, err := filepath.Rel(l.rootPath, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}
