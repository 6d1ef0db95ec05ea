// Package filex holds filesystem helpers for client-side files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path, returning the
// absolute path of the file. In-memory SQLite DSNs are returned untouched.
func EnsureParentDir(path string) (string, error) {
	if path == "" || path == ":memory:" || (len(path) > 5 && path[:5] == "file:") {
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}
