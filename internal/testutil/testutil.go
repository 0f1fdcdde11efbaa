// Package testutil provides shared test helpers for setting up page workspaces.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/layoutsync/internal/storage"
)

// Page renders a minimal HTML page with NAV and SIDEBAR regions carrying the
// given inner content.
func Page(title, nav, sidebar string) string {
	return "<html>\n<head><title>" + title + "</title></head>\n<body>\n" +
		"<!-- SHARED NAV START -->\n" + nav + "\n<!-- SHARED NAV END -->\n" +
		"<main>" + title + "</main>\n" +
		"<!-- SHARED SIDEBAR START -->\n" + sidebar + "\n<!-- SHARED SIDEBAR END -->\n" +
		"</body>\n</html>\n"
}

// Workspace creates a temporary directory populated with files (relative
// path -> content) and returns it with a storage.FS rooted there.
func Workspace(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of dir/rel.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
