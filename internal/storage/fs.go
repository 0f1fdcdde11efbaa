package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the workspace directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (f *FS) Root() string {
	return f.root
}

// Resolve joins a relative path onto the root and rejects any result that
// escapes it (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("storage: empty path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s (paths are relative to %s)", rel, f.root)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

// Read returns the raw bytes of a workspace file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces content through a temp file in the same directory, so a
// reader never observes a half-written page. The existing file mode is kept.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	prev, statErr := os.Stat(abs)
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	if statErr == nil {
		if err := os.Chmod(abs, prev.Mode().Perm()); err != nil {
			return fmt.Errorf("storage: chmod %s: %w", path, err)
		}
	}
	return nil
}
