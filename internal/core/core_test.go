package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/model"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Fake binary scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func collectUntilTerminal(t *testing.T, c *Core, id string) []model.ProgressEvent {
	t.Helper()
	var got []model.ProgressEvent
	timeout := time.After(15 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if ev.ID != id {
				continue
			}
			got = append(got, ev)
			if ev.Status.IsTerminal() {
				return got
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for a terminal event for %s, got %v", id, got)
		}
	}
}

func TestGetSupportedPlatforms(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	names := c.GetSupportedPlatforms()
	joined := strings.Join(names, ",")
	for _, want := range []string{"youtube", "vimeo", "generic"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Platforms %v missing %q", names, want)
		}
	}
	if names[len(names)-1] != "generic" {
		t.Errorf("Expected generic last, got %v", names)
	}
}

func TestStartDownload_UnknownConversionFormat(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	_, err := c.StartDownload("", "https://youtube.com/watch?v=x", "best", "", t.TempDir(), "avi", false)
	if !errors.Is(err, model.ErrUnknownConversionFormat) {
		t.Errorf("Expected ErrUnknownConversionFormat, got %v", err)
	}
}

func TestStartDownload_TraversalRejected(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	_, err := c.StartDownload("", "https://youtube.com/watch?v=x", "best", "", "/tmp/../etc", "", false)
	if err == nil {
		t.Error("Expected an error for a traversal path")
	}
}

func TestStartDownload_GeneratesID(t *testing.T) {
	outDir := t.TempDir()
	extractor := writeScript(t, "extractor.sh", fmt.Sprintf(`out="%s/clip_best.mp4"
echo "[download] Destination: $out"
: > "$out"
`, outDir))

	c := New(discardLogger(), Options{ExtractorPath: extractor})
	defer c.Close()

	id, err := c.StartDownload("", "https://youtube.com/watch?v=dQw4w9WgXcQ", "best", "", outDir, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, "download-") {
		t.Errorf("Generated id = %q, expected a download- prefix", id)
	}

	got := collectUntilTerminal(t, c, id)
	if got[0].Status != model.StatusQueued {
		t.Errorf("First event status = %s, expected queued", got[0].Status)
	}
	if final := got[len(got)-1]; final.Status != model.StatusCompleted {
		t.Errorf("Terminal status = %s (error: %s)", final.Status, final.Error)
	}
}

func TestGenerateConversionFilename(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	got, err := c.GenerateConversionFilename("/tmp/My Clip.mp4", "1080p", "prores")
	if err != nil {
		t.Fatal(err)
	}
	if expected := filepath.FromSlash("/tmp/My Clip_1080_prores.mov"); got != expected {
		t.Errorf("GenerateConversionFilename = %q, expected %q", got, expected)
	}

	if _, err := c.GenerateConversionFilename("/tmp/x.mp4", "best", "wav"); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}

func TestConvertVideoFile(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	transcoder := writeScript(t, "transcoder.sh", `shift $(($# - 1))
: > "$1"
`)

	c := New(discardLogger(), Options{ExtractorPath: "/bin/true", TranscoderPath: transcoder})
	defer c.Close()

	output, err := c.GenerateConversionFilename(input, "1080p", "h264")
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.ConvertVideoFile("", input, output, "h264")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(id, "convert-") {
		t.Errorf("Conversion id = %q, expected a convert- prefix", id)
	}

	got := collectUntilTerminal(t, c, id)
	if got[0].Status != model.StatusConverting || got[0].FilePath != input {
		t.Errorf("First event = %+v, expected converting with the input path", got[0])
	}
	final := got[len(got)-1]
	if final.Status != model.StatusCompleted {
		t.Fatalf("Terminal status = %s (error: %s)", final.Status, final.Error)
	}
	if expected := strings.TrimSuffix(input, ".mp4") + "_1080_h264.mp4"; final.FilePath != expected {
		t.Errorf("Terminal file path = %q, expected %q", final.FilePath, expected)
	}

	select {
	case completedID := <-c.ConversionCompleted():
		if completedID != id {
			t.Errorf("Legacy channel id = %q, expected %q", completedID, id)
		}
	case <-time.After(time.Second):
		t.Error("Legacy conversion-completed channel never fired")
	}
}

func TestConvertVideoFile_Failure(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	transcoder := writeScript(t, "transcoder.sh", `echo "boom" >&2
exit 1
`)

	c := New(discardLogger(), Options{ExtractorPath: "/bin/true", TranscoderPath: transcoder})
	defer c.Close()

	id, err := c.ConvertVideoFile("", input, filepath.Join(filepath.Dir(input), "track.mp3"), "mp3")
	if err != nil {
		t.Fatal(err)
	}

	got := collectUntilTerminal(t, c, id)
	final := got[len(got)-1]
	if final.Status != model.StatusFailed || !strings.Contains(final.Error, "boom") {
		t.Errorf("Terminal event = %+v, expected failed with the transcoder's stderr", final)
	}

	select {
	case failedID := <-c.ConversionFailed():
		if failedID != id {
			t.Errorf("Legacy channel id = %q, expected %q", failedID, id)
		}
	case <-time.After(time.Second):
		t.Error("Legacy conversion-failed channel never fired")
	}
}

func TestConvertVideoFile_Cancellation(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	transcoder := writeScript(t, "transcoder.sh", "exec sleep 5\n")

	c := New(discardLogger(), Options{ExtractorPath: "/bin/true", TranscoderPath: transcoder})
	defer c.Close()

	id, err := c.ConvertVideoFile("", input, filepath.Join(filepath.Dir(input), "out.mp4"), "h264")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)
	c.CancelDownload(id)

	got := collectUntilTerminal(t, c, id)
	if final := got[len(got)-1]; final.Status != model.StatusCancelled {
		t.Errorf("Terminal status = %s, expected cancelled", final.Status)
	}
}

func TestConvertVideoFile_MissingInput(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true", TranscoderPath: "/bin/true"})
	defer c.Close()

	if _, err := c.ConvertVideoFile("", filepath.Join(t.TempDir(), "nope.mp4"), "/tmp/out.mp4", "h264"); err == nil {
		t.Error("Expected an error for a missing input file")
	}
}

func TestConvertVideoFile_NoTranscoder(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	if _, err := c.ConvertVideoFile("", "/tmp/clip.mp4", "/tmp/out.mp4", "h264"); err == nil {
		t.Error("Expected an error when the transcoder is unavailable")
	}
}

func TestGetVideoMetadata_DisallowedHost(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	if _, err := c.GetVideoMetadata(context.Background(), "https://example.com/v"); err == nil {
		t.Error("Expected an error for a disallowed host")
	}
}

func TestExtractURLs(t *testing.T) {
	c := New(discardLogger(), Options{ExtractorPath: "/bin/true"})
	defer c.Close()

	result := c.ExtractURLs("watch https://www.youtube.com/watch?v=dQw4w9WgXcQ today")
	if len(result.URLs) != 1 || !result.URLs[0].IsValid {
		t.Errorf("ExtractURLs = %+v", result)
	}
}
