package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotDirectory is returned when the root exists but is not a directory
var ErrNotDirectory = errors.New("root is not a directory")

// FileInfo represents a local file
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Relative path from root
	Size    int64
	ModTime int64 // Unix timestamp
	Mode    os.FileMode
}

// Walker walks local files with exclude pattern support
type Walker struct {
	root     string
	excludes []string
	skip     map[string]struct{}
}

// NewWalker creates a new file walker
func NewWalker(root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	// Validate root exists and is a directory
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return &Walker{
		root:     absRoot,
		excludes: excludes,
		skip:     make(map[string]struct{}),
	}, nil
}

// Root returns the absolute root directory
func (w *Walker) Root() string {
	return w.root
}

// Skip registers files that must never be reported, such as the run log
func (w *Walker) Skip(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.skip[abs] = struct{}{}
	}
}

// Walk lists every file under the root using an explicit stack of pending
// directories. Directories are never reported and symlinks are not followed.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	stack := []string{w.root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}

		// Push subdirectories in reverse so they are popped in lexical order
		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			relPath, err := filepath.Rel(w.root, path)
			if err != nil {
				return nil, fmt.Errorf("get relative path: %w", err)
			}

			// Convert to forward slashes for pattern matching
			relPathForward := filepath.ToSlash(relPath)

			if entry.IsDir() {
				if w.isExcludedDir(relPathForward) {
					continue
				}
				subdirs = append(subdirs, path)
				continue
			}

			if _, ok := w.skip[path]; ok {
				continue
			}
			if w.isExcluded(relPathForward) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("get file info: %w", err)
			}

			files = append(files, FileInfo{
				Path:    path,
				RelPath: relPath,
				Size:    info.Size(),
				ModTime: info.ModTime().Unix(),
				Mode:    info.Mode(),
			})
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return files, nil
}

// isExcludedDir checks if a whole directory is excluded by a "dir/" pattern
func (w *Walker) isExcludedDir(path string) bool {
	for _, pattern := range w.excludes {
		if !strings.HasSuffix(pattern, "/") {
			continue
		}
		if matched, _ := doublestar.Match(strings.TrimSuffix(pattern, "/"), path); matched {
			return true
		}
	}
	return false
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			// Check if any parent directory matches
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			// Regular file pattern
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}
