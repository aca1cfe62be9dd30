// Package export saves rendered artifacts fetched from the backend's
// export endpoint to local files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Formats the backend can render. zip bundles every other format.
var Formats = []string{"txt", "md", "srt", "vtt", "json", "zip"}

// Valid reports whether format is one the backend can render.
func Valid(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Filename returns the local name for an exported artifact.
func Filename(format string) string {
	return "transcript." + format
}

// Save writes an exported payload to dir under the format-derived name and
// returns the full path. Nothing is written for an unknown format.
func Save(dir, format string, payload []byte) (string, error) {
	if !Valid(format) {
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, Filename(format))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
