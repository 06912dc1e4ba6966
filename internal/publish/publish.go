// Package publish writes the generated artifact.
package publish

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// DefaultMode is used when the destination does not exist yet.
const DefaultMode os.FileMode = 0o644

// WriteFile replaces path with data atomically: readers see either the old
// artifact or the new one, never a partial write. An existing file keeps its
// permission bits.
func WriteFile(path string, data []byte) error {
	mode := DefaultMode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := renameio.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
