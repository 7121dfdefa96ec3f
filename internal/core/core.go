package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/convert"
	"github.com/grabzilla/grabzilla/internal/download"
	"github.com/grabzilla/grabzilla/internal/events"
	"github.com/grabzilla/grabzilla/internal/metadata"
	"github.com/grabzilla/grabzilla/internal/model"
	"github.com/grabzilla/grabzilla/internal/platform"
	"github.com/grabzilla/grabzilla/internal/security"
	"github.com/grabzilla/grabzilla/internal/urlx"
)

// Options wires the discovered binaries and initial settings into a Core
type Options struct {
	ExtractorPath  string
	TranscoderPath string
	ProberPath     string
	MaxConcurrent  int
}

// Core is the facade the frontend talks to. It owns the event stream, the
// download orchestrator, the transcoder driver and the metadata adapter.
type Core struct {
	log       *logrus.Logger
	stream    *events.Stream
	downloads *download.Service
	driver    *convert.Driver
	meta      *metadata.Adapter

	mu          sync.Mutex
	conversions map[string]context.CancelFunc
}

// New assembles a Core from located binaries. TranscoderPath may be empty;
// conversion operations then fail while downloads keep working.
func New(log *logrus.Logger, opts Options) *Core {
	stream := events.NewStream()

	var driver *convert.Driver
	var converter download.Converter
	if opts.TranscoderPath != "" {
		driver = convert.NewDriver(log, opts.TranscoderPath, opts.ProberPath)
		converter = driver
	}

	downloads := download.NewService(log, opts.ExtractorPath, converter, stream)
	if opts.MaxConcurrent > 0 {
		downloads.SetMaxConcurrent(opts.MaxConcurrent)
	}

	return &Core{
		log:         log,
		stream:      stream,
		downloads:   downloads,
		driver:      driver,
		meta:        metadata.NewAdapter(log, opts.ExtractorPath),
		conversions: make(map[string]context.CancelFunc),
	}
}

// ExtractURLs scans pasted text for downloadable URLs
func (c *Core) ExtractURLs(text string) urlx.ExtractionResult {
	return urlx.Extract(text)
}

// GetSupportedPlatforms lists the platforms the URL pipeline recognizes
func (c *Core) GetSupportedPlatforms() []string {
	platforms := urlx.SupportedPlatforms()
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.String()
	}
	return names
}

// ValidateURL reports whether the URL is well-formed for a supported platform
func (c *Core) ValidateURL(u string) bool {
	return urlx.Validate(u)
}

// CleanURL canonicalizes a single URL
func (c *Core) CleanURL(u string) (string, error) {
	return urlx.Clean(u)
}

// ExpandPath resolves a leading tilde to the user's home directory
func (c *Core) ExpandPath(path string) (string, error) {
	return platform.ExpandPath(path)
}

// CheckFileExists reports whether path names an existing regular file
func (c *Core) CheckFileExists(path string) bool {
	return platform.FileExists(path)
}

// DefaultDownloadDir returns the suggested download directory, creating it
// when missing.
func (c *Core) DefaultDownloadDir() (string, error) {
	return platform.DefaultDownloadDir()
}

// GetVideoMetadata fetches full metadata for an allowlisted URL
func (c *Core) GetVideoMetadata(ctx context.Context, url string) (*model.VideoMetadata, error) {
	if !security.ValidateNetworkAccess(url) {
		return nil, fmt.Errorf("network access to %q is not allowed", url)
	}
	return c.meta.GetVideoMetadata(ctx, url)
}

// GetBasicVideoMetadata fetches a fast preview for an allowlisted URL
func (c *Core) GetBasicVideoMetadata(ctx context.Context, url string) (*model.VideoMetadata, error) {
	if !security.ValidateNetworkAccess(url) {
		return nil, fmt.Errorf("network access to %q is not allowed", url)
	}
	return c.meta.GetBasicVideoInfo(ctx, url)
}

// ExtractPlaylistVideos resolves a playlist to its member video URLs
func (c *Core) ExtractPlaylistVideos(ctx context.Context, url string) ([]string, error) {
	if !security.ValidateNetworkAccess(url) {
		return nil, fmt.Errorf("network access to %q is not allowed", url)
	}
	return c.meta.ExtractPlaylistVideos(ctx, url)
}

// StartDownload queues a download and returns its job id. An empty id is
// replaced with a generated one; an empty output directory falls back to the
// default download directory. An unknown conversion format is rejected before
// anything is queued.
func (c *Core) StartDownload(id, url, quality, format, outputDir, convertFormat string, keepOriginal bool) (string, error) {
	var conversion model.ConversionFormat
	if convertFormat != "" {
		parsed, err := model.ParseConversionFormat(convertFormat)
		if err != nil {
			return "", err
		}
		conversion = parsed
	}

	outputDir, err := c.resolveOutputDir(outputDir)
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newID("download-")
	}

	c.downloads.Enqueue(model.DownloadRequest{
		ID:            id,
		URL:           url,
		Quality:       quality,
		Format:        format,
		OutputDir:     outputDir,
		ConvertFormat: conversion,
		KeepOriginal:  keepOriginal,
	})
	return id, nil
}

func (c *Core) resolveOutputDir(outputDir string) (string, error) {
	if outputDir == "" {
		return platform.DefaultDownloadDir()
	}
	expanded, err := platform.ExpandPath(outputDir)
	if err != nil {
		return "", err
	}
	return security.SanitizePath(expanded)
}

// CancelDownload requests termination of a download job or a standalone
// conversion. Unknown ids are a no-op.
func (c *Core) CancelDownload(id string) {
	c.mu.Lock()
	cancel, ok := c.conversions[id]
	if ok {
		delete(c.conversions, id)
	}
	c.mu.Unlock()
	if ok {
		cancel()
		return
	}
	c.downloads.Cancel(id)
}

// SetMaxConcurrent adjusts the download concurrency cap
func (c *Core) SetMaxConcurrent(n int) {
	c.downloads.SetMaxConcurrent(n)
}

// GenerateConversionFilename predicts the output path a conversion of
// inputPath would produce.
func (c *Core) GenerateConversionFilename(inputPath, quality, convertFormat string) (string, error) {
	format, err := model.ParseConversionFormat(convertFormat)
	if err != nil {
		return "", err
	}
	return download.ConversionFilename(inputPath, download.ResolutionTag(quality), format), nil
}

// ConvertVideoFile converts a local file outside the download pipeline and
// returns the conversion's job id. An empty id is replaced with a generated
// one. Progress and the terminal outcome arrive on the event stream; the
// terminal outcome is mirrored on the legacy channels.
func (c *Core) ConvertVideoFile(id, inputPath, outputPath, convertFormat string) (string, error) {
	format, err := model.ParseConversionFormat(convertFormat)
	if err != nil {
		return "", err
	}
	if c.driver == nil {
		return "", fmt.Errorf("conversion requested but transcoder is not available")
	}

	sanitized, err := security.SanitizePath(inputPath)
	if err != nil {
		return "", err
	}
	if !platform.FileExists(sanitized) {
		return "", fmt.Errorf("input file does not exist: %s", sanitized)
	}

	output, err := security.SanitizePath(outputPath)
	if err != nil {
		return "", err
	}

	if id == "" {
		id = newID("convert-")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conversions[id] = cancel
	c.mu.Unlock()

	c.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusConverting, FilePath: sanitized})

	go func() {
		defer cancel()
		defer func() {
			c.mu.Lock()
			delete(c.conversions, id)
			c.mu.Unlock()
		}()

		err := c.driver.Convert(ctx, id, sanitized, output, format, c.stream.Publish)
		switch {
		case err == nil:
			c.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusCompleted, Progress: 100, FilePath: output})
			c.stream.MirrorConversionTerminal(id, model.StatusCompleted)
		case ctx.Err() != nil:
			c.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusCancelled, FilePath: sanitized})
		default:
			c.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusFailed, Error: err.Error(), FilePath: sanitized})
			c.stream.MirrorConversionTerminal(id, model.StatusFailed)
		}
	}()

	return id, nil
}

// Events is the subscriber side of the progress stream
func (c *Core) Events() <-chan model.ProgressEvent {
	return c.stream.Events()
}

// ConversionCompleted is the legacy id-only channel for finished conversions
func (c *Core) ConversionCompleted() <-chan string {
	return c.stream.ConversionCompleted()
}

// ConversionFailed is the legacy id-only channel for failed conversions
func (c *Core) ConversionFailed() <-chan string {
	return c.stream.ConversionFailed()
}

// Close shuts the event stream down. Buffered events are still delivered.
func (c *Core) Close() {
	c.stream.Close()
}

// newID generates a time-ordered job id, falling back to a timestamp when
// UUID generation fails.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	return prefix + id.String()
}
