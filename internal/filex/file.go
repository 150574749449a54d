// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold file, with owner-only
// permissions, and returns it. A file in the working directory needs nothing.
func EnsureParentDir(file string) (string, error) {
	dir := filepath.Dir(file)
	if dir == "." {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
