// Package apply executes inbound editor states against the host
// adapter. Every mutation runs on the host thread; the reconciler
// implements the "active window wins" policy for workspace syncs.
package apply

import (
	"log/slog"

	"github.com/tandemedit/tandem/internal/host"
	"github.com/tandemedit/tandem/internal/pathutil"
	"github.com/tandemedit/tandem/internal/protocol"
)

// focusSource is the slice of window state the reconciler needs.
type focusSource interface {
	IsActive(forceRealTime bool) bool
}

// Applier turns accepted messages into host mutations.
type Applier struct {
	adapter host.Adapter
	win     focusSource
	family  pathutil.Family
	logger  *slog.Logger
}

// New creates an applier targeting the given host adapter. family is
// this side's platform style, used to normalize incoming paths.
func New(adapter host.Adapter, win focusSource, family pathutil.Family, logger *slog.Logger) *Applier {
	return &Applier{
		adapter: adapter,
		win:     win,
		family:  family,
		logger:  logger,
	}
}

// Apply schedules one message onto the host thread. Messages for one
// peer apply in receive order because the host runs tasks sequentially.
func (a *Applier) Apply(w *protocol.MessageWrapper) {
	// Suffix repair and platform normalization apply to incoming
	// payload paths only, never to paths read from the host. Computed
	// once here and threaded through.
	path := a.normalizeIncoming(w.Payload.FilePath)

	a.adapter.RunOnHost(func() {
		a.run(&w.Payload, path)
	})
}

func (a *Applier) run(payload *protocol.EditorState, path string) {
	switch payload.Action {
	case protocol.ActionClose:
		a.applyClose(path)
	case protocol.ActionOpen:
		a.applyOpen(payload, path)
	case protocol.ActionNavigate:
		a.applyNavigate(payload, path)
	case protocol.ActionWorkspaceSync:
		a.reconcile(payload, path)
	default:
		a.logger.Warn("unknown action", slog.String("action", string(payload.Action)))
	}
}

func (a *Applier) applyClose(path string) {
	if !a.adapter.CloseFile(path) {
		a.logger.Warn("close target not open", slog.String("path", path))
	}
}

// applyOpen opens without stealing focus, then positions the cursor.
func (a *Applier) applyOpen(payload *protocol.EditorState, path string) {
	if err := a.adapter.OpenFile(path, true); err != nil {
		a.logger.Warn("open failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	a.applyCursor(payload, path)
}

// applyNavigate expects the file open already; if it is missing it is
// opened first.
func (a *Applier) applyNavigate(payload *protocol.EditorState, path string) {
	if !a.isOpen(path) {
		a.applyOpen(payload, path)
		return
	}
	a.applyCursor(payload, path)
}

// applyCursor runs the cursor-and-selection routine: restore the
// selection with the caret at the endpoint nearest the payload caret
// (preserving up-vs-down direction), or clear the selection and move
// the caret. Either way the caret ends up visible.
func (a *Applier) applyCursor(payload *protocol.EditorState, path string) {
	caret := host.Caret{Line: payload.Line, Column: payload.Column}

	var err error
	if payload.HasSelection() {
		sel := host.Selection{
			Start: host.Caret{Line: *payload.SelectionStartLine, Column: *payload.SelectionStartColumn},
			End:   host.Caret{Line: *payload.SelectionEndLine, Column: *payload.SelectionEndColumn},
		}
		err = a.adapter.SetSelection(path, sel, nearestEndpoint(sel, caret))
	} else {
		err = a.adapter.SetCaret(path, caret)
	}

	if err != nil {
		a.logger.Warn("positioning cursor failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}

	a.adapter.RevealCaret(path, caret)
}

// nearestEndpoint picks the selection corner the caret belongs to. The
// caret equals one endpoint on a well-formed payload; distance breaks
// the tie for malformed ones.
func nearestEndpoint(sel host.Selection, caret host.Caret) host.Caret {
	if caret == sel.Start {
		return sel.Start
	}
	if caret == sel.End {
		return sel.End
	}
	if distance(caret, sel.Start) <= distance(caret, sel.End) {
		return sel.Start
	}
	return sel.End
}

func distance(a, b host.Caret) int {
	dl := a.Line - b.Line
	if dl < 0 {
		dl = -dl
	}
	dc := a.Column - b.Column
	if dc < 0 {
		dc = -dc
	}
	return dl*1000 + dc
}

// reconcile mirrors the sender's tab set. The side that lost focus
// broadcast everything it had open; this side closes what the sender
// lacks and opens what it has. If this window is the one the user is
// actually in, its view is restored afterwards so it never gets yanked
// around -- only the background tab set is aligned.
func (a *Applier) reconcile(payload *protocol.EditorState, payloadPath string) {
	active := a.win.IsActive(true)

	var saved *host.EditorSnapshot
	if active {
		saved = a.adapter.ActiveEditor()
	}

	current := a.adapter.OpenFiles()
	currentByCanon := make(map[string]string, len(current))
	for _, p := range current {
		currentByCanon[pathutil.Canonical(p)] = p
	}

	target := make(map[string]string, len(payload.OpenedFiles))
	for _, p := range payload.OpenedFiles {
		norm := a.normalizeIncoming(p)
		target[pathutil.Canonical(norm)] = norm
	}

	closed := 0
	for canon, hostPath := range currentByCanon {
		if _, keep := target[canon]; keep {
			continue
		}
		if !a.adapter.CloseFile(hostPath) {
			a.logger.Warn("reconcile close target not open", slog.String("path", hostPath))
			continue
		}
		closed++
	}

	opened := 0
	for canon, normPath := range target {
		if _, have := currentByCanon[canon]; have {
			continue
		}
		if err := a.adapter.OpenFile(normPath, true); err != nil {
			a.logger.Warn("reconcile open failed",
				slog.String("path", normPath),
				slog.String("error", err.Error()),
			)
			continue
		}
		opened++
	}

	// Focus may have moved while the tab I/O ran.
	active = a.win.IsActive(true)

	if active && saved != nil && opened > 0 {
		a.restore(saved)
		return
	}

	if payloadPath != "" {
		a.applyCursor(payload, payloadPath)
	}

	a.logger.Debug("workspace reconciled",
		slog.Int("closed", closed),
		slog.Int("opened", opened),
		slog.Bool("restored_local", active && saved != nil && opened > 0),
	)
}

// restore re-applies the snapshot taken before reconciliation so the
// local user's editor looks untouched.
func (a *Applier) restore(saved *host.EditorSnapshot) {
	var err error
	if saved.Selection != nil {
		err = a.adapter.SetSelection(saved.Path, *saved.Selection, saved.Caret)
	} else {
		err = a.adapter.SetCaret(saved.Path, saved.Caret)
	}

	if err != nil {
		a.logger.Warn("restoring local editor failed",
			slog.String("path", saved.Path),
			slog.String("error", err.Error()),
		)
		return
	}
	a.adapter.RevealCaret(saved.Path, saved.Caret)
}

func (a *Applier) isOpen(path string) bool {
	canon := pathutil.Canonical(path)
	for _, p := range a.adapter.OpenFiles() {
		if pathutil.Canonical(p) == canon {
			return true
		}
	}
	return false
}

// normalizeIncoming repairs and platform-normalizes a payload path.
func (a *Applier) normalizeIncoming(p string) string {
	if p == "" {
		return ""
	}
	return pathutil.Normalize(pathutil.StripArtifactSuffix(p), a.family)
}
