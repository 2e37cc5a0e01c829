// Package core wires the synchronizer together: identity, window
// state, event ingest, the send queue, the transport, and the inbound
// apply pipeline. The host adapter is borrowed from the IDE binding and
// outlives the core.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/tandemedit/tandem/internal/apply"
	"github.com/tandemedit/tandem/internal/config"
	"github.com/tandemedit/tandem/internal/host"
	"github.com/tandemedit/tandem/internal/identity"
	"github.com/tandemedit/tandem/internal/inbound"
	"github.com/tandemedit/tandem/internal/ingest"
	"github.com/tandemedit/tandem/internal/pathutil"
	"github.com/tandemedit/tandem/internal/protocol"
	"github.com/tandemedit/tandem/internal/queue"
	"github.com/tandemedit/tandem/internal/transport"
	"github.com/tandemedit/tandem/internal/window"
)

// Core is one synchronizer instance bound to one IDE process.
type Core struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter host.Adapter

	id      *identity.Identity
	win     *window.State
	ingest  *ingest.Ingest
	queue   *queue.SendQueue
	trans   *transport.Transport
	inbound *inbound.Processor
	apply   *apply.Applier

	cancel context.CancelFunc
}

// New builds a core around the given host adapter. Nothing runs until
// Start.
func New(cfg *config.Config, adapter host.Adapter, logger *slog.Logger) *Core {
	c := &Core{
		cfg:     cfg,
		logger:  logger,
		adapter: adapter,
	}

	c.id = identity.New(cfg.ProjectPath)
	c.win = window.New(adapter, logger)

	c.trans = transport.New(transport.Config{
		Role:          cfg.Role,
		ProjectPath:   cfg.ProjectPath,
		IDEType:       cfg.IDEType,
		IDEName:       cfg.IDEName,
		UseCustomPort: cfg.UseCustomPort,
		CustomPort:    cfg.CustomPort,
	}, logger)

	c.queue = queue.New(c.id, c.trans, logger)
	c.ingest = ingest.New(adapter, c.win, cfg.Family, c.queue.Add, logger)

	family := pathutil.Family(cfg.Family)
	c.apply = apply.New(adapter, c.win, family, logger)
	c.inbound = inbound.New(c.id.InstanceID(), c.apply, logger)

	c.trans.SetOnMessage(c.inbound.HandleFrame)
	c.win.SetOnChange(c.focusChanged)

	return c
}

// Start attaches to the host and launches the queue worker. When
// auto-start is configured the transport is enabled immediately.
func (c *Core) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.ingest.Attach()
	go c.win.Attach(ctx)
	c.queue.Start(ctx)

	c.logger.Info("core started",
		slog.String("instance", c.id.InstanceID()),
		slog.String("role", c.cfg.Role),
	)

	if c.cfg.AutoStartSync {
		c.Enable()
	}
}

// Enable turns auto-reconnect on.
func (c *Core) Enable() {
	c.trans.Enable()
}

// Disable turns auto-reconnect off and drops any connection.
func (c *Core) Disable() {
	c.trans.Disable()
}

// Restart bounces the transport.
func (c *Core) Restart() {
	c.trans.Restart()
}

// State reports the transport connection state.
func (c *Core) State() transport.State {
	return c.trans.State()
}

// SetOnState forwards the transport's coalesced state callback, the
// feed behind any status indicator. Call before Start.
func (c *Core) SetOnState(fn func(s transport.State)) {
	c.trans.SetOnState(fn)
}

// InstanceID exposes the stable per-process identity.
func (c *Core) InstanceID() string {
	return c.id.InstanceID()
}

// Dispose tears everything down: transport, debounce timers, queue.
func (c *Core) Dispose() {
	c.trans.Disable()
	c.ingest.Stop()
	if c.cancel != nil {
		c.cancel()
	}
	c.queue.Stop()
	c.logger.Info("core disposed")
}

// focusChanged receives window focus edges. Losing focus broadcasts
// the full tab set so the other side can mirror it.
func (c *Core) focusChanged(focused bool) {
	if focused {
		return
	}
	c.emitWorkspaceSync()
}

// emitWorkspaceSync snapshots the open tabs and the active editor on
// the host thread and enqueues a WORKSPACE_SYNC. The state is stamped
// active: it describes the moment this window was still the focused
// one, and an inactive stamp would make the receiver drop it.
func (c *Core) emitWorkspaceSync() {
	c.adapter.RunOnHost(func() {
		var opened []string
		for _, p := range c.adapter.OpenFiles() {
			if pathutil.IsLocalPath(p) {
				opened = append(opened, pathutil.LocalPath(p))
			}
		}

		state := protocol.EditorState{
			Action:      protocol.ActionWorkspaceSync,
			Source:      c.cfg.Family,
			IsActive:    true,
			Timestamp:   protocol.FormatTimestamp(time.Now()),
			OpenedFiles: opened,
		}

		if snap := c.adapter.ActiveEditor(); snap != nil {
			state.FilePath = snap.Path
			state.Line = snap.Caret.Line
			state.Column = snap.Caret.Column
			if snap.Selection != nil {
				state.SetSelection(
					snap.Selection.Start.Line, snap.Selection.Start.Column,
					snap.Selection.End.Line, snap.Selection.End.Column,
				)
			}
		}

		c.queue.Add(state)

		c.logger.Debug("workspace sync emitted",
			slog.Int("opened_files", len(opened)),
			slog.String("active", state.FilePath),
		)
	})
}
