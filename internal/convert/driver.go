package convert

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/model"
)

// Transcoder progress protocol constants
const (
	progressPipeTarget = "pipe:1"
	progressTimePrefix = "out_time_ms="
	progressEndMarker  = "progress=end"
)

// Cap on the stderr excerpt surfaced in conversion errors
const maxStderrExcerpt = 500

// Driver runs the transcoder over local media files and reports progress
// through a per-call emit function.
type Driver struct {
	log            *logrus.Logger
	transcoderPath string
	probePath      string
}

// NewDriver creates a transcoder driver. probePath may be empty; conversion
// then falls back to heartbeat progress without percentages.
func NewDriver(log *logrus.Logger, transcoderPath, probePath string) *Driver {
	return &Driver{
		log:            log,
		transcoderPath: transcoderPath,
		probePath:      probePath,
	}
}

// profileArgs returns the codec argument vector for a conversion format
func profileArgs(format model.ConversionFormat) ([]string, error) {
	switch format {
	case model.FormatH264:
		return []string{
			"-c:v", "libx264",
			"-profile:v", "high",
			"-level:v", "4.1",
			"-preset", "medium",
			"-crf", "18",
			"-c:a", "aac",
			"-b:a", "192k",
			"-movflags", "+faststart",
		}, nil
	case model.FormatDNxHR:
		return []string{
			"-c:v", "dnxhd",
			"-profile:v", "dnxhr_sq",
			"-c:a", "pcm_s24le",
			"-f", "mov",
		}, nil
	case model.FormatProRes:
		return []string{
			"-c:v", "prores_ks",
			"-profile:v", "0",
			"-c:a", "pcm_s16le",
			"-f", "mov",
		}, nil
	case model.FormatMP3:
		return []string{
			"-vn",
			"-c:a", "libmp3lame",
			"-b:a", "320k",
			"-q:a", "0",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownConversionFormat, format)
	}
}

// buildArgs assembles the full transcoder command line
func buildArgs(inputPath, outputPath string, profile []string) []string {
	args := []string{"-i", inputPath}
	args = append(args, profile...)
	args = append(args,
		"-progress", progressPipeTarget,
		"-y",
		outputPath,
	)
	return args
}

// Convert transcodes inputPath to outputPath in the given format. Progress
// events carry the Converting status and the owning job id; the terminal event
// is the caller's responsibility. Cancellation through ctx kills the child and
// returns its error with ctx.Err() observable by the caller.
func (d *Driver) Convert(ctx context.Context, id, inputPath, outputPath string, format model.ConversionFormat, emit func(model.ProgressEvent)) error {
	profile, err := profileArgs(format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	log := d.log.WithFields(logrus.Fields{"job": id, "format": format, "output": outputPath})

	// Total duration drives percentage; without it progress stays a heartbeat
	var totalDuration float64
	if d.probePath != "" {
		if info, err := d.probe(inputPath); err != nil {
			log.WithError(err).Warn("Probing input duration failed, progress will be approximate")
		} else {
			totalDuration = info.Duration
		}
	}

	cmd := exec.CommandContext(ctx, d.transcoderPath, buildArgs(inputPath, outputPath, profile)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}

	log.Info("Spawning transcoder")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting transcoder: %w", err)
	}

	var lastPercent float64
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == progressEndMarker {
			lastPercent = 100
			emit(model.ProgressEvent{ID: id, Status: model.StatusConverting, Progress: 100, FilePath: inputPath})
			continue
		}

		if !strings.HasPrefix(line, progressTimePrefix) {
			continue
		}
		micros, err := strconv.ParseInt(strings.TrimPrefix(line, progressTimePrefix), 10, 64)
		if err != nil || micros < 0 {
			continue
		}

		if totalDuration > 0 {
			percent := float64(micros) / 1e6 / totalDuration * 100
			if percent > 100 {
				percent = 100
			}
			lastPercent = percent
		}
		emit(model.ProgressEvent{ID: id, Status: model.StatusConverting, Progress: lastPercent, FilePath: inputPath})
	}

	// Partial outputs stay on disk; the caller decides what to keep
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("transcoder failed: %s", stderrExcerpt(&stderr))
	}

	log.Info("Conversion finished")
	return nil
}

func stderrExcerpt(buf *bytes.Buffer) string {
	out := buf.String()
	if len(out) > maxStderrExcerpt {
		out = out[len(out)-maxStderrExcerpt:]
	}
	if out == "" {
		return "transcoder exited with non-zero status"
	}
	return out
}
