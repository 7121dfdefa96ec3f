package download

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/events"
	"github.com/grabzilla/grabzilla/internal/model"
	"github.com/grabzilla/grabzilla/internal/security"
)

// Concurrency cap bounds and default
const (
	DefaultMaxConcurrent = 5
	MinConcurrent        = 1
	MaxConcurrent        = 10
)

// How long the scheduler sleeps when saturated or waiting on active jobs
const schedulerBackoff = time.Second

// Cap on the stderr excerpt surfaced in Failed events
const maxStderrExcerpt = 500

// Converter runs the transcoder over a downloaded artifact. Progress events
// it emits are already stamped with the owning job id and Converting status.
type Converter interface {
	Convert(ctx context.Context, id, inputPath, outputPath string, format model.ConversionFormat, emit func(model.ProgressEvent)) error
}

// Service is the job orchestrator. One scheduler goroutine drains the FIFO
// queue under the concurrency cap; each job runs in its own worker goroutine
// that exclusively owns its child process.
type Service struct {
	log           *logrus.Logger
	extractorPath string
	converter     Converter
	stream        *events.Stream

	mu            sync.Mutex
	queue         []model.DownloadRequest
	active        map[string]*jobHandle
	maxConcurrent int
	processing    bool
}

type jobHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates an orchestrator publishing to stream. The converter may
// be nil when the transcoder is unavailable; jobs requesting conversion then
// fail at the conversion step.
func NewService(log *logrus.Logger, extractorPath string, converter Converter, stream *events.Stream) *Service {
	return &Service{
		log:           log,
		extractorPath: extractorPath,
		converter:     converter,
		stream:        stream,
		active:        make(map[string]*jobHandle),
		maxConcurrent: DefaultMaxConcurrent,
	}
}

// SetMaxConcurrent adjusts the concurrency cap, clamped to [1,10]. The new
// cap applies to subsequent scheduling decisions; running jobs are untouched.
func (s *Service) SetMaxConcurrent(n int) {
	if n < MinConcurrent {
		n = MinConcurrent
	}
	if n > MaxConcurrent {
		n = MaxConcurrent
	}
	s.mu.Lock()
	s.maxConcurrent = n
	s.mu.Unlock()
}

// MaxConcurrent returns the current cap
func (s *Service) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxConcurrent
}

// ActiveCount returns the number of jobs currently owning a child process
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Enqueue appends a request to the FIFO queue and emits its Queued event. The
// scheduler is started lazily on the first enqueue and reactivated after it
// drained a previous batch.
func (s *Service) Enqueue(req model.DownloadRequest) {
	s.mu.Lock()
	s.queue = append(s.queue, req)
	start := !s.processing
	if start {
		s.processing = true
	}
	s.mu.Unlock()

	s.stream.Publish(model.ProgressEvent{ID: req.ID, Status: model.StatusQueued})

	if start {
		s.log.WithField("max_concurrent", s.MaxConcurrent()).Debug("Starting download scheduler")
		go s.schedule()
	}
}

// Cancel requests best-effort termination of a job. Active jobs get their
// child killed and emit Cancelled; queued jobs are dropped from the queue and
// emit Cancelled directly. Unknown ids are a no-op.
func (s *Service) Cancel(id string) {
	s.mu.Lock()
	if handle, ok := s.active[id]; ok {
		delete(s.active, id)
		s.mu.Unlock()
		handle.cancel()
		return
	}
	for i, req := range s.queue {
		if req.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.mu.Unlock()
			s.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusCancelled})
			return
		}
	}
	s.mu.Unlock()
}

// schedule is the single long-lived scheduler loop. It self-terminates when
// the queue is empty and no jobs remain active; the next Enqueue restarts it.
func (s *Service) schedule() {
	for {
		s.reapFinished()

		s.mu.Lock()
		activeCount := len(s.active)
		queueLen := len(s.queue)
		cap := s.maxConcurrent

		if activeCount >= cap {
			s.mu.Unlock()
			time.Sleep(schedulerBackoff)
			continue
		}

		if queueLen == 0 {
			if activeCount == 0 {
				s.processing = false
				s.mu.Unlock()
				s.log.Debug("Download scheduler stopped")
				return
			}
			s.mu.Unlock()
			time.Sleep(schedulerBackoff)
			continue
		}

		req := s.queue[0]
		s.queue = s.queue[1:]

		ctx, cancel := context.WithCancel(context.Background())
		handle := &jobHandle{cancel: cancel, done: make(chan struct{})}
		s.active[req.ID] = handle
		s.mu.Unlock()

		go s.runJob(ctx, req, handle.done)
	}
}

// reapFinished drops handles whose workers have returned
func (s *Service) reapFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, handle := range s.active {
		select {
		case <-handle.done:
			delete(s.active, id)
		default:
		}
	}
}

// runJob drives one download from spawn to its terminal event
func (s *Service) runJob(ctx context.Context, req model.DownloadRequest, done chan struct{}) {
	defer close(done)

	log := s.log.WithFields(logrus.Fields{"job": req.ID, "url": req.URL})

	if !security.ValidateNetworkAccess(req.URL) {
		log.Warn("Rejected by network policy")
		s.stream.Publish(model.ProgressEvent{
			ID:     req.ID,
			Status: model.StatusFailed,
			Error:  fmt.Sprintf("network access to %q is not allowed", req.URL),
		})
		return
	}

	s.stream.Publish(model.ProgressEvent{ID: req.ID, Status: model.StatusDownloading})

	selector := QualitySelector(req.Quality)
	template := "%(title)s" + QualitySuffix(req.Quality) + ".%(ext)s"

	cmd := exec.Command(s.extractorPath,
		"--progress", "--newline",
		"-f", selector,
		"-o", filepath.Join(req.OutputDir, template),
		req.URL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.fail(req.ID, fmt.Sprintf("creating stdout pipe: %v", err))
		return
	}

	log.WithFields(logrus.Fields{"selector": selector, "output_dir": req.OutputDir}).
		Info("Spawning extractor")

	if err := cmd.Start(); err != nil {
		s.fail(req.ID, fmt.Sprintf("starting extractor: %v", err))
		return
	}

	// The reader goroutine exclusively owns destination until readerDone closes
	var destination string
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if path, ok := ParseDestination(line); ok {
				destination = path
				continue
			}
			tick, ok := ParseProgressLine(line)
			if !ok {
				log.WithField("line", line).Trace("Extractor output")
				continue
			}
			s.stream.Publish(model.ProgressEvent{
				ID:              req.ID,
				Status:          model.StatusDownloading,
				Progress:        tick.Percent,
				Speed:           tick.Speed,
				ETA:             tick.ETA,
				DownloadedBytes: tick.DownloadedBytes,
				TotalBytes:      tick.TotalBytes,
			})
		}
	}()

	waitErr := make(chan error, 1)
	go func() {
		<-readerDone
		waitErr <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		log.Info("Cancelling download, killing extractor")
		_ = cmd.Process.Kill()
		<-waitErr
		s.stream.Publish(model.ProgressEvent{ID: req.ID, Status: model.StatusCancelled})
		return
	case err := <-waitErr:
		if err != nil {
			log.WithError(err).Error("Extractor exited with failure")
			s.fail(req.ID, fmt.Sprintf("download failed: %s", stderrExcerpt(&stderr)))
			return
		}
	}

	artifact := destination
	if artifact == "" {
		artifact, err = FindArtifact(req.OutputDir)
		if err != nil {
			s.fail(req.ID, err.Error())
			return
		}
	}

	if req.ConvertFormat != "" {
		artifact, err = s.runConversion(ctx, req, artifact)
		if err != nil {
			if ctx.Err() != nil {
				s.stream.Publish(model.ProgressEvent{ID: req.ID, Status: model.StatusCancelled})
			} else {
				s.fail(req.ID, err.Error())
			}
			return
		}
	}

	log.WithField("file", artifact).Info("Download completed")
	s.stream.Publish(model.ProgressEvent{
		ID:       req.ID,
		Status:   model.StatusCompleted,
		Progress: 100,
		FilePath: artifact,
	})
}

// runConversion drives the post-download transcode phase and returns the
// converted artifact's path.
func (s *Service) runConversion(ctx context.Context, req model.DownloadRequest, input string) (string, error) {
	if s.converter == nil {
		return "", fmt.Errorf("conversion requested but transcoder is not available")
	}

	s.stream.Publish(model.ProgressEvent{ID: req.ID, Status: model.StatusConverting})

	output := ConversionFilename(input, ResolutionTag(req.Quality), req.ConvertFormat)

	err := s.converter.Convert(ctx, req.ID, input, output, req.ConvertFormat, s.stream.Publish)
	if err != nil {
		return "", fmt.Errorf("conversion failed: %w", err)
	}
	return output, nil
}

func (s *Service) fail(id, message string) {
	s.stream.Publish(model.ProgressEvent{ID: id, Status: model.StatusFailed, Error: message})
}

func stderrExcerpt(buf *bytes.Buffer) string {
	out := buf.String()
	if len(out) > maxStderrExcerpt {
		out = out[len(out)-maxStderrExcerpt:]
	}
	if out == "" {
		return "extractor exited with non-zero status"
	}
	return out
}
