package browser

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultArgs are prepended to the configured browser arguments. They keep
// Chromium stable inside containers.
var DefaultArgs = []string{
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--enable-automation",
}

// LaunchArgs merges DefaultArgs with user-provided args. Duplicates are kept;
// Chromium honors the last occurrence.
func LaunchArgs(extra []string) []string {
	args := make([]string, 0, len(DefaultArgs)+len(extra))
	args = append(args, DefaultArgs...)
	return append(args, extra...)
}

// SplitFlag turns "--name=value" into ("name", "value"). A bare "--name"
// yields an empty value.
func SplitFlag(arg string) (name, value string) {
	arg = strings.TrimLeft(arg, "-")
	name, value, _ = strings.Cut(arg, "=")
	return name, value
}

// Registry tracks the open sessions of a launcher so Shutdown can close
// whatever tests left behind.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Session
	wg       sync.WaitGroup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Track registers s. Every tracked session must be released exactly once.
func (r *Registry) Track(s Session) {
	r.wg.Add(1)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Release removes the session with id. Unknown ids are ignored.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		r.wg.Done()
	}
}

// Len reports how many sessions are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every open session concurrently and waits for them to be
// released, or for ctx to expire.
func (r *Registry) CloseAll(ctx context.Context, logger *zap.Logger) {
	r.mu.Lock()
	open := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	for _, s := range open {
		go func(s Session) {
			if err := s.Close(ctx); err != nil {
				logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}
}
