// Package window tracks whether this instance's IDE window is focused.
// Only the focused side's events drive the partner, so the rest of the
// core consults this flag on every emission and when reconciling a
// workspace sync.
package window

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// The host window may not exist yet when the core starts; attaching
	// the focus listener is retried before giving up.
	attachAttempts = 10
	attachDelay    = 500 * time.Millisecond
)

// focusHost is the slice of the host adapter the window tracker needs.
type focusHost interface {
	IsWindowFocused() bool
	OnFocusChanged(fn func(focused bool)) error
}

// State caches the window focus flag and surfaces focus edges. The
// cached value is updated by host pushes and, on demand, by a real-time
// query when a caller cannot afford a stale answer.
type State struct {
	host   focusHost
	logger *slog.Logger

	active atomic.Bool

	mu       sync.Mutex
	onChange func(focused bool)
}

// New creates an unattached window state tracker.
func New(host focusHost, logger *slog.Logger) *State {
	return &State{host: host, logger: logger}
}

// SetOnChange registers the focus edge callback. It fires once per
// edge: repeated reports of the same state are swallowed.
func (s *State) SetOnChange(fn func(focused bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Attach seeds the cache and hooks the host's focus callback, retrying
// while the host window is not yet available. Blocks up to
// attachAttempts * attachDelay; run it from a goroutine at startup.
func (s *State) Attach(ctx context.Context) {
	s.active.Store(s.host.IsWindowFocused())

	for attempt := 1; attempt <= attachAttempts; attempt++ {
		err := s.host.OnFocusChanged(s.handleEdge)
		if err == nil {
			s.logger.Debug("focus listener attached", slog.Int("attempt", attempt))
			return
		}

		if attempt == attachAttempts {
			s.logger.Warn("giving up attaching focus listener",
				slog.Int("attempts", attachAttempts),
				slog.String("error", err.Error()),
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(attachDelay):
		}
	}
}

// handleEdge receives focus pushes from the host.
func (s *State) handleEdge(focused bool) {
	if s.active.Swap(focused) == focused {
		return
	}
	s.fireChange(focused)
}

// IsActive returns the cached focus flag. With forceRealTime it queries
// the host instead and reconciles the cache, firing the change callback
// if the cached value was wrong.
func (s *State) IsActive(forceRealTime bool) bool {
	if !forceRealTime {
		return s.active.Load()
	}

	real := s.host.IsWindowFocused()
	if s.active.Swap(real) != real {
		s.logger.Debug("focus cache corrected", slog.Bool("focused", real))
		s.fireChange(real)
	}
	return real
}

func (s *State) fireChange(focused bool) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(focused)
	}
}
