package reporting

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Write once a reporter has been closed.
var ErrClosed = errors.New("reporter is closed")

// Async decouples scenario goroutines from the reporters that render files.
// Write enqueues; Drain, run on its own goroutine, forwards every result to
// the destination and closes it once the queue is closed and empty.
type Async struct {
	mu     sync.Mutex
	ch     chan ScenarioResult
	closed bool
	dst    Reporter
}

// NewAsync wraps dst with a queue of the given size.
func NewAsync(dst Reporter, buffer int) *Async {
	return &Async{ch: make(chan ScenarioResult, buffer), dst: dst}
}

// Write enqueues result. It blocks while the queue is full.
func (a *Async) Write(result ScenarioResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.ch <- result
	return nil
}

// Close stops accepting results. It does not wait for Drain.
func (a *Async) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	return nil
}

// Drain forwards queued results until Close, then closes the destination.
// The first write error is returned after the queue is emptied.
func (a *Async) Drain() error {
	var first error
	for result := range a.ch {
		if err := a.dst.Write(result); err != nil && first == nil {
			first = err
		}
	}
	if err := a.dst.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
