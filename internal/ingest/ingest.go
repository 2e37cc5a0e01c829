// Package ingest turns host adapter callbacks into normalized
// EditorState records for the send queue. Rapid caret movement on one
// file is debounced; opens and closes go out immediately.
package ingest

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tandemedit/tandem/internal/host"
	"github.com/tandemedit/tandem/internal/pathutil"
	"github.com/tandemedit/tandem/internal/protocol"
)

// debounceDelay is the coalescing window for NAVIGATE events per file.
const debounceDelay = 300 * time.Millisecond

// activeSource answers "is this window focused" without forcing a host
// round trip on every keystroke.
type activeSource interface {
	IsActive(forceRealTime bool) bool
}

// pendingNav is one scheduled NAVIGATE emission. Rescheduling stops the
// timer and replaces the state, so only the newest caret survives.
type pendingNav struct {
	timer *time.Timer
	state protocol.EditorState
}

// Ingest adapts editor events into the outbound pipeline.
type Ingest struct {
	adapter host.Adapter
	win     activeSource
	sink    func(protocol.EditorState)
	source  string
	logger  *slog.Logger

	mu      sync.RWMutex
	pending map[string]*pendingNav
	stopped bool
}

// New creates an ingest stage that forwards normalized states to sink.
// source is the IDE family tag stamped on every emission.
func New(adapter host.Adapter, win activeSource, source string, sink func(protocol.EditorState), logger *slog.Logger) *Ingest {
	return &Ingest{
		adapter: adapter,
		win:     win,
		sink:    sink,
		source:  source,
		logger:  logger,
		pending: make(map[string]*pendingNav),
	}
}

// Attach registers the four editor callbacks with the host adapter.
func (in *Ingest) Attach() {
	in.adapter.OnFileOpened(in.fileOpened)
	in.adapter.OnActiveTabChanged(in.tabChanged)
	in.adapter.OnCaretChanged(in.caretChanged)
	in.adapter.OnFileClosed(in.fileClosed)
}

// Stop cancels all pending debounce timers and rejects new events.
func (in *Ingest) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.stopped = true
	for path, nav := range in.pending {
		nav.timer.Stop()
		delete(in.pending, path)
	}
}

func (in *Ingest) fileOpened(path string, caret host.Caret, sel *host.Selection) {
	in.emitNow(protocol.ActionOpen, path, caret, sel)
}

func (in *Ingest) tabChanged(path string, caret host.Caret, sel *host.Selection) {
	in.emitNow(protocol.ActionOpen, path, caret, sel)
}

// caretChanged schedules a debounced NAVIGATE. A newer event for the
// same path cancels the older timer, so at most one is pending per file.
func (in *Ingest) caretChanged(path string, caret host.Caret, sel *host.Selection) {
	state, ok := in.normalize(protocol.ActionNavigate, path, caret, sel)
	if !ok {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.stopped {
		return
	}

	if prev, ok := in.pending[path]; ok {
		prev.timer.Stop()
	}

	nav := &pendingNav{state: state}
	nav.timer = time.AfterFunc(debounceDelay, func() { in.fire(path, nav) })
	in.pending[path] = nav
}

// fire runs on the timer goroutine. The sink (the send queue) is
// thread-safe, so no hop is needed beyond the map cleanup.
func (in *Ingest) fire(path string, nav *pendingNav) {
	in.mu.Lock()
	if in.pending[path] == nav {
		delete(in.pending, path)
	}
	in.mu.Unlock()

	in.sink(nav.state)
}

func (in *Ingest) fileClosed(path string) {
	// Still visible in another tab group means the file is not really
	// going away; the close must not propagate.
	if in.adapter.IsFileVisibleElsewhere(path) {
		in.logger.Debug("close suppressed, visible elsewhere", slog.String("path", path))
		return
	}

	in.cancelPending(path)
	in.emitNow(protocol.ActionClose, path, host.Caret{}, nil)
}

// cancelPending drops any queued NAVIGATE for the path. A close racing
// a stale caret event must win, or the receiver would reopen the file.
func (in *Ingest) cancelPending(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if nav, ok := in.pending[path]; ok {
		nav.timer.Stop()
		delete(in.pending, path)
	}
}

// emitNow bypasses the debounce for OPEN and CLOSE.
func (in *Ingest) emitNow(action protocol.Action, path string, caret host.Caret, sel *host.Selection) {
	in.mu.RLock()
	stopped := in.stopped
	in.mu.RUnlock()
	if stopped {
		return
	}

	state, ok := in.normalize(action, path, caret, sel)
	if !ok {
		return
	}
	in.sink(state)
}

// normalize builds the EditorState for an event, applying the scheme
// filter and the active-window gate. Inactive events never reach the
// queue: the unfocused side only mirrors, it does not command.
func (in *Ingest) normalize(action protocol.Action, path string, caret host.Caret, sel *host.Selection) (protocol.EditorState, bool) {
	if !pathutil.IsLocalPath(path) {
		in.logger.Debug("dropping non-file path", slog.String("path", path))
		return protocol.EditorState{}, false
	}

	if !in.win.IsActive(false) {
		in.logger.Debug("dropping event from unfocused window",
			slog.String("action", string(action)),
			slog.String("path", path),
		)
		return protocol.EditorState{}, false
	}

	state := protocol.EditorState{
		Action:    action,
		FilePath:  pathutil.LocalPath(path),
		Line:      caret.Line,
		Column:    caret.Column,
		Source:    in.source,
		IsActive:  true,
		Timestamp: protocol.FormatTimestamp(time.Now()),
	}

	if sel != nil {
		state.SetSelection(sel.Start.Line, sel.Start.Column, sel.End.Line, sel.End.Column)
	}

	return state, true
}

// PendingCount reports how many debounce timers are outstanding.
func (in *Ingest) PendingCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.pending)
}
