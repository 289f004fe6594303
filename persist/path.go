package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/holmberd/go-persist/compression"
)

// NormalizeSavePath resolves path to an absolute location, appends the
// mode's extension when the path does not already carry it, and creates
// any missing ancestor directories. Directory creation is idempotent.
func NormalizeSavePath(path string, mode compression.Mode) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("persist: %w", err)
	}
	if ext := mode.Ext(); ext != "" && filepath.Ext(abs) != ext {
		abs += ext
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("persist: %w", err)
	}
	return abs, nil
}
