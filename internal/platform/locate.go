package platform

import (
	"errors"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var (
	// ErrExtractorNotFound means no working yt-dlp could be located
	ErrExtractorNotFound = errors.New("yt-dlp not found; install it or configure a bundled path")

	// ErrTranscoderNotFound means no working ffmpeg could be located
	ErrTranscoderNotFound = errors.New("ffmpeg not found; please install ffmpeg first")
)

// Well-known extractor install locations probed before falling back to PATH
var extractorSearchDirs = []string{
	"/opt/homebrew/bin",
	"/usr/local/bin",
	"/usr/bin",
}

// FindExtractor locates a working yt-dlp binary. The bundled path, when
// given, wins over system installs. Presence is confirmed by a successful
// --version invocation.
func FindExtractor(log *logrus.Logger, bundledPath string) (string, error) {
	if bundledPath != "" && probeBinary(bundledPath, "--version") {
		log.WithField("path", bundledPath).Info("Using bundled yt-dlp")
		return bundledPath, nil
	}

	for _, dir := range extractorSearchDirs {
		candidate := filepath.Join(dir, "yt-dlp")
		if probeBinary(candidate, "--version") {
			log.WithField("path", candidate).Info("Found system yt-dlp")
			return candidate, nil
		}
	}

	if probeBinary("yt-dlp", "--version") {
		log.Info("Found yt-dlp in PATH")
		return "yt-dlp", nil
	}

	return "", ErrExtractorNotFound
}

// FindTranscoder locates ffmpeg via PATH using a -version probe
func FindTranscoder(log *logrus.Logger) (string, error) {
	if probeBinary("ffmpeg", "-version") {
		log.Info("Found ffmpeg in PATH")
		return "ffmpeg", nil
	}
	return "", ErrTranscoderNotFound
}

// FindProbe locates the transcoder's probe companion
func FindProbe() (string, error) {
	if probeBinary("ffprobe", "-version") {
		return "ffprobe", nil
	}
	return "", ErrTranscoderNotFound
}

func probeBinary(path, versionFlag string) bool {
	return exec.Command(path, versionFlag).Run() == nil
}
