// Package filex holds filesystem helpers for the client's local state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path (for example a
// SQLite file) and returns path unchanged. In-memory DSNs are passed through.
func EnsureParentDir(path string) (string, error) {
	if path == "" || path == ":memory:" || filepath.Dir(path) == "." {
		return path, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return path, nil
}
