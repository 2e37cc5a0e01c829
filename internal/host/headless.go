package host

import (
	"fmt"
	"sync"
)

// Headless is an in-memory Adapter with no IDE behind it. The
// standalone daemon uses it to soak-test a sync pair on one machine;
// tests use it as a stateful fake. RunOnHost executes inline, which
// matches the cooperative single-threaded host contract as long as
// callers serialize their submissions, and lets tests observe effects
// synchronously.
type Headless struct {
	mu      sync.Mutex
	open    []string
	active  *EditorSnapshot
	focused bool

	focusFn     func(bool)
	openedFn    FileEventFn
	closedFn    func(string)
	activeTabFn FileEventFn
	caretFn     FileEventFn

	// attachFailures makes the next n OnFocusChanged calls fail, so the
	// window attach retry path can be exercised.
	attachFailures int
}

// NewHeadless returns an empty headless adapter with an unfocused window.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) OpenFile(path string, preserveFocus bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.open {
		if p == path {
			return nil
		}
	}
	h.open = append(h.open, path)

	if !preserveFocus {
		h.active = &EditorSnapshot{Path: path}
	}
	return nil
}

func (h *Headless) CloseFile(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, p := range h.open {
		if p == path {
			h.open = append(h.open[:i], h.open[i+1:]...)
			if h.active != nil && h.active.Path == path {
				h.active = nil
			}
			return true
		}
	}
	return false
}

func (h *Headless) OpenFiles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.open))
	copy(out, h.open)
	return out
}

func (h *Headless) ActiveEditor() *EditorSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active == nil {
		return nil
	}
	snap := *h.active
	if h.active.Selection != nil {
		sel := *h.active.Selection
		snap.Selection = &sel
	}
	return &snap
}

func (h *Headless) SetCaret(path string, caret Caret) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isOpenLocked(path) {
		return fmt.Errorf("file not open: %s", path)
	}
	h.active = &EditorSnapshot{Path: path, Caret: caret}
	return nil
}

func (h *Headless) SetSelection(path string, sel Selection, caret Caret) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isOpenLocked(path) {
		return fmt.Errorf("file not open: %s", path)
	}
	h.active = &EditorSnapshot{Path: path, Caret: caret, Selection: &sel}
	return nil
}

func (h *Headless) RevealCaret(string, Caret) {}

func (h *Headless) IsFileVisibleElsewhere(string) bool { return false }

func (h *Headless) IsWindowFocused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

func (h *Headless) RunOnHost(fn func()) { fn() }

func (h *Headless) OnFocusChanged(fn func(bool)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attachFailures > 0 {
		h.attachFailures--
		return fmt.Errorf("host window not ready")
	}
	h.focusFn = fn
	return nil
}

func (h *Headless) OnFileOpened(fn FileEventFn) { h.mu.Lock(); h.openedFn = fn; h.mu.Unlock() }
func (h *Headless) OnFileClosed(fn func(string)) { h.mu.Lock(); h.closedFn = fn; h.mu.Unlock() }
func (h *Headless) OnActiveTabChanged(fn FileEventFn) { h.mu.Lock(); h.activeTabFn = fn; h.mu.Unlock() }
func (h *Headless) OnCaretChanged(fn FileEventFn) { h.mu.Lock(); h.caretFn = fn; h.mu.Unlock() }

func (h *Headless) isOpenLocked(path string) bool {
	for _, p := range h.open {
		if p == path {
			return true
		}
	}
	return false
}

// Test/soak drivers below: simulate the IDE side of the adapter.

// FocusCallbackAttached reports whether OnFocusChanged succeeded yet.
// Harnesses wait on this before driving focus edges.
func (h *Headless) FocusCallbackAttached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focusFn != nil
}

// FailNextAttach makes the next n OnFocusChanged calls fail.
func (h *Headless) FailNextAttach(n int) {
	h.mu.Lock()
	h.attachFailures = n
	h.mu.Unlock()
}

// SetFocused flips the window focus and fires the focus callback.
func (h *Headless) SetFocused(focused bool) {
	h.mu.Lock()
	h.focused = focused
	fn := h.focusFn
	h.mu.Unlock()

	if fn != nil {
		fn(focused)
	}
}

// SimulateOpen opens a file locally and fires the opened callback.
func (h *Headless) SimulateOpen(path string, caret Caret, sel *Selection) {
	h.mu.Lock()
	if !h.isOpenLocked(path) {
		h.open = append(h.open, path)
	}
	snap := &EditorSnapshot{Path: path, Caret: caret, Selection: sel}
	h.active = snap
	fn := h.openedFn
	h.mu.Unlock()

	if fn != nil {
		fn(path, caret, sel)
	}
}

// SimulateClose closes a file locally and fires the closed callback.
func (h *Headless) SimulateClose(path string) {
	h.CloseFile(path)

	h.mu.Lock()
	fn := h.closedFn
	h.mu.Unlock()

	if fn != nil {
		fn(path)
	}
}

// SimulateCaret fires the caret/selection callback.
func (h *Headless) SimulateCaret(path string, caret Caret, sel *Selection) {
	h.mu.Lock()
	if h.active != nil && h.active.Path == path {
		h.active.Caret = caret
		h.active.Selection = sel
	}
	fn := h.caretFn
	h.mu.Unlock()

	if fn != nil {
		fn(path, caret, sel)
	}
}

// SimulateTabChange fires the active-tab-changed callback.
func (h *Headless) SimulateTabChange(path string, caret Caret, sel *Selection) {
	h.mu.Lock()
	if !h.isOpenLocked(path) {
		h.open = append(h.open, path)
	}
	h.active = &EditorSnapshot{Path: path, Caret: caret, Selection: sel}
	fn := h.activeTabFn
	h.mu.Unlock()

	if fn != nil {
		fn(path, caret, sel)
	}
}

var _ Adapter = (*Headless)(nil)
