package download

// Package download implements the job orchestrator: a FIFO queue drained by a
// single scheduler under a concurrency cap, one worker per job driving the
// extractor binary as a child process, line-oriented progress parsing, and
// cooperative cancellation. Every enqueued request reaches exactly one
// terminal event on the shared stream.
