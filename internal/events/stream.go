package events

// Package events carries every ProgressEvent for downloads and conversions on
// a single unbounded stream. Publishers never block on a slow subscriber; the
// pump goroutine buffers in memory and callers are expected to drain.

import (
	"sync"

	"github.com/grabzilla/grabzilla/internal/model"
)

// Legacy mirror channel capacity; sends are non-blocking
const legacyChanSize = 64

// Stream multiplexes progress events from all jobs into one channel
type Stream struct {
	in  chan model.ProgressEvent
	out chan model.ProgressEvent

	conversionCompleted chan string
	conversionFailed    chan string

	closeOnce sync.Once
}

// NewStream creates a running stream. Close it when the core shuts down.
func NewStream() *Stream {
	s := &Stream{
		in:                  make(chan model.ProgressEvent),
		out:                 make(chan model.ProgressEvent),
		conversionCompleted: make(chan string, legacyChanSize),
		conversionFailed:    make(chan string, legacyChanSize),
	}
	go s.pump()
	return s
}

// Publish enqueues an event. It never blocks on the subscriber.
func (s *Stream) Publish(ev model.ProgressEvent) {
	defer func() {
		// Publishing after Close is a harmless no-op
		_ = recover()
	}()
	s.in <- ev
}

// Events returns the subscriber side of the stream. The channel is closed
// after Close once all buffered events have been delivered.
func (s *Stream) Events() <-chan model.ProgressEvent {
	return s.out
}

// MirrorConversionTerminal re-emits a conversion's terminal outcome on the
// legacy id-only channels.
func (s *Stream) MirrorConversionTerminal(id string, status model.Status) {
	switch status {
	case model.StatusCompleted:
		select {
		case s.conversionCompleted <- id:
		default:
		}
	case model.StatusFailed:
		select {
		case s.conversionFailed <- id:
		default:
		}
	}
}

// ConversionCompleted is the legacy channel carrying ids of finished conversions
func (s *Stream) ConversionCompleted() <-chan string {
	return s.conversionCompleted
}

// ConversionFailed is the legacy channel carrying ids of failed conversions
func (s *Stream) ConversionFailed() <-chan string {
	return s.conversionFailed
}

// Close stops the stream. Buffered events are still delivered before the
// subscriber channel closes.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.in)
	})
}

func (s *Stream) pump() {
	var queue []model.ProgressEvent
	for {
		if len(queue) == 0 {
			ev, ok := <-s.in
			if !ok {
				close(s.out)
				return
			}
			queue = append(queue, ev)
			continue
		}

		select {
		case ev, ok := <-s.in:
			if !ok {
				for _, pending := range queue {
					s.out <- pending
				}
				close(s.out)
				return
			}
			queue = append(queue, ev)
		case s.out <- queue[0]:
			queue = queue[1:]
		}
	}
}
