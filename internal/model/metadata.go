package model

import "fmt"

// VideoMetadata holds per-URL metadata used for UI previews
type VideoMetadata struct {
	Title       string        `json:"title"`
	Duration    string        `json:"duration,omitempty"`
	Uploader    string        `json:"uploader,omitempty"`
	Description string        `json:"description,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	ViewCount   int64         `json:"view_count,omitempty"`
	UploadDate  string        `json:"upload_date,omitempty"`
	Formats     []VideoFormat `json:"formats"`
}

// VideoFormat describes one downloadable stream variant
type VideoFormat struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	ABR        float64 `json:"abr,omitempty"`
	VBR        float64 `json:"vbr,omitempty"`
}

// FormatDuration renders a duration in seconds as H:MM:SS when it spans an
// hour or more, M:SS otherwise.
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
