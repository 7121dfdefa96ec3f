package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// Directory permissions for created download directories
const DefaultDirPermissions = 0o755

// DownloadFolderName is the directory created under Desktop or Downloads
const DownloadFolderName = "GrabZilla"

// DefaultDownloadDir returns the suggested download directory,
// <Desktop-or-Downloads>/GrabZilla, creating it on first use.
func DefaultDownloadDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	base := filepath.Join(home, "Desktop")
	if _, err := os.Stat(base); err != nil {
		base = filepath.Join(home, "Downloads")
	}

	dir := filepath.Join(base, DownloadFolderName)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return "", err
	}
	return dir, nil
}

// ExpandPath resolves a leading "~" or "~/" to the user's home directory.
// Other paths are returned unchanged.
func ExpandPath(path string) (string, error) {
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
