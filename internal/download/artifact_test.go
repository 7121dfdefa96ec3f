package download

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func TestFindArtifact(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeFile(t, filepath.Join(dir, "older.mp4"), now.Add(-2*time.Hour))
	writeFile(t, filepath.Join(dir, "newest.mkv"), now)
	writeFile(t, filepath.Join(dir, "ignored.txt"), now.Add(time.Hour))
	writeFile(t, filepath.Join(dir, ".hidden.mp4"), now.Add(time.Hour))
	writeFile(t, filepath.Join(dir, "Thumbs.db"), now.Add(time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := FindArtifact(dir)
	if err != nil {
		t.Fatal(err)
	}
	if expected := filepath.Join(dir, "newest.mkv"); got != expected {
		t.Errorf("FindArtifact = %q, expected %q", got, expected)
	}
}

func TestFindArtifact_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), time.Now())

	_, err := FindArtifact(dir)
	if !errors.Is(err, ErrNoArtifact) {
		t.Errorf("Expected ErrNoArtifact, got %v", err)
	}
}

func TestFindArtifact_MissingDir(t *testing.T) {
	if _, err := FindArtifact(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
