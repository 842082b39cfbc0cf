package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no marker is found.
var ErrRootNotFound = errors.New("root not found")

// rootMarkers identify a document root: the index directory or a Git checkout.
var rootMarkers = []string{".quill", ".git"}

// FindRoot walks upwards from startDir looking for a document root and
// returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
