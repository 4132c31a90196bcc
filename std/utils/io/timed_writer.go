package io

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// TimedWriter is a buffered writer that batches small writes.
// Buffered data is flushed after the deadline passes since the first
// unflushed write, or once maxQueue writes are pending.
type TimedWriter struct {
	mutex    sync.Mutex
	w        *bufio.Writer
	deadline time.Duration
	maxQueue int

	pending int
	timer   *time.Timer
	prevErr error
}

func NewTimedWriter(w io.Writer, bufsize int) *TimedWriter {
	return &TimedWriter{
		w:        bufio.NewWriterSize(w, bufsize),
		deadline: time.Millisecond,
		maxQueue: 8,
	}
}

// SetDeadline sets the flush deadline. Zero flushes on every write.
func (w *TimedWriter) SetDeadline(d time.Duration) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.deadline = d
}

func (w *TimedWriter) SetMaxQueue(n int) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.maxQueue = n
}

func (w *TimedWriter) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.flush()
}

// Write buffers p. An error from a previous timed flush is returned once.
func (w *TimedWriter) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.prevErr; err != nil {
		w.prevErr = nil
		return 0, err
	}

	n, err := w.w.Write(p)
	if err != nil {
		return n, err
	}

	w.pending++
	if w.deadline == 0 || w.pending >= w.maxQueue {
		return n, w.flush()
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.deadline, func() { w.Flush() })
	}
	return n, nil
}

func (w *TimedWriter) flush() error {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = 0

	err := w.w.Flush()
	if err != nil {
		w.prevErr = err
	}
	return err
}
