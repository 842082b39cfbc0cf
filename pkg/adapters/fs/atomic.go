package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempFilePrefix marks in-flight writes. List and Watch ignore such files.
const TempFilePrefix = "quill-tmp-"

// isTempFile reports whether name is an in-flight atomic write.
func isTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempFilePrefix)
}

// writeFileAtomic replaces filename with data by writing a sibling temp file
// and renaming it over the target, so readers and the watcher never observe
// a half-written document.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(name)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(name, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	renamed = true
	return nil
}
