package model

import (
	"errors"
	"fmt"
)

// ErrUnknownConversionFormat is returned when a conversion format string does
// not name one of the supported profiles.
var ErrUnknownConversionFormat = errors.New("unknown conversion format")

// ConversionFormat selects a transcoder profile for post-processing
type ConversionFormat string

const (
	// FormatH264 is H.264 High Profile @ Level 4.1 in MP4
	FormatH264 ConversionFormat = "h264"

	// FormatDNxHR is DNxHR SQ for Avid workflows, MOV container
	FormatDNxHR ConversionFormat = "dnxhr"

	// FormatProRes is ProRes Proxy for Apple workflows, MOV container
	FormatProRes ConversionFormat = "prores"

	// FormatMP3 is audio-only MP3 extraction
	FormatMP3 ConversionFormat = "mp3"
)

// ParseConversionFormat maps a format tag to a ConversionFormat
func ParseConversionFormat(s string) (ConversionFormat, error) {
	switch s {
	case "h264":
		return FormatH264, nil
	case "dnxhr":
		return FormatDNxHR, nil
	case "prores":
		return FormatProRes, nil
	case "mp3":
		return FormatMP3, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConversionFormat, s)
}

// Ext returns the container extension for the format, without a leading dot
func (f ConversionFormat) Ext() string {
	switch f {
	case FormatDNxHR, FormatProRes:
		return "mov"
	case FormatMP3:
		return "mp3"
	default:
		return "mp4"
	}
}

// String returns the format tag used in conversion filenames
func (f ConversionFormat) String() string {
	return string(f)
}

// DownloadRequest describes a single download job. The caller owns ID
// uniqueness; the orchestrator consumes each request exactly once.
type DownloadRequest struct {
	ID            string
	URL           string
	Quality       string
	Format        string
	OutputDir     string
	ConvertFormat ConversionFormat // empty means no conversion
	KeepOriginal  bool
}
