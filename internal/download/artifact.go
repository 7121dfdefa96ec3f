package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoArtifact is returned when the output directory holds no media file
var ErrNoArtifact = errors.New("no media artifact found in output directory")

// Extensions eligible for artifact discovery, lowercase, without dots
var mediaExtensions = map[string]bool{
	"mp4": true, "mkv": true, "avi": true, "mov": true, "wmv": true,
	"flv": true, "webm": true, "m4v": true, "3gp": true, "ogv": true,
	"mp3": true, "m4a": true, "flac": true, "wav": true, "ogg": true,
	"aac": true, "opus": true, "wma": true,
}

// FindArtifact returns the most recently modified media file in dir. It is
// the fallback path for locating a download's output when the extractor's own
// Destination line was not observed; with multiple jobs sharing a directory
// it can race, which is why the Destination line wins when available.
func FindArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading output directory: %w", err)
	}

	var newest string
	var newestTime time.Time

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || name == "Thumbs.db" {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if !mediaExtensions[ext] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Strict comparison keeps the first entry in iteration order on ties
		if newest == "" || info.ModTime().After(newestTime) {
			newest = name
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("%w: %s", ErrNoArtifact, dir)
	}
	return filepath.Join(dir, newest), nil
}
