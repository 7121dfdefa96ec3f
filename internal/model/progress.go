package model

// ProgressEvent is the single event type streamed to the subscriber for both
// downloads and conversions. Progress is a percentage in [0,100]; it restarts
// at 0 when a job enters the converting phase.
type ProgressEvent struct {
	ID              string  `json:"id"`
	Status          Status  `json:"status"`
	Progress        float64 `json:"progress"`
	Speed           string  `json:"speed,omitempty"`
	ETA             string  `json:"eta,omitempty"`
	DownloadedBytes int64   `json:"downloaded_bytes,omitempty"`
	TotalBytes      int64   `json:"total_bytes,omitempty"`
	FilePath        string  `json:"file_path,omitempty"`
	Error           string  `json:"error,omitempty"`
}
