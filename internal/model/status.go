package model

// Status represents the lifecycle state of a download or conversion job
type Status string

const (
	// StatusQueued means the job is waiting in the FIFO queue
	StatusQueued Status = "queued"

	// StatusDownloading means the extractor child is running
	StatusDownloading Status = "downloading"

	// StatusConverting means the transcoder child is running
	StatusConverting Status = "converting"

	// StatusCompleted means the job finished and produced an artifact
	StatusCompleted Status = "completed"

	// StatusFailed means the job failed with an error
	StatusFailed Status = "failed"

	// StatusCancelled means the job was cancelled by the caller
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsActive returns true if the job currently owns a child process
func (s Status) IsActive() bool {
	return s == StatusDownloading || s == StatusConverting
}

// IsTerminal returns true if the status is one of the three terminal states.
// Exactly one terminal event is emitted per job.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}
