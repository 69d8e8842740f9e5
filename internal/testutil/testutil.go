// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteProject creates a fresh temporary directory holding files and returns
// its path. Keys are slash-separated paths relative to the directory.
//
// Usage:
//
//	root := testutil.WriteProject(t, map[string]string{
//	    "app.json":             `{"pages": ["pages/home/index"]}`,
//	    "app.js":               "App({})",
//	    "pages/home/index.json": "{}",
//	    "pages/home/index.js":   "Page({})",
//	})
func WriteProject(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	return root
}

// WriteTree writes files below root, creating parent directories as needed.
// Existing files are overwritten.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}
