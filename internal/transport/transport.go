// Package transport provides the at-most-one bidirectional message
// stream between the two IDE processes on loopback TCP. One side binds
// and accepts (listener), the other scans ports and connects (scanner);
// both expose the same contract to the rest of the core.
package transport

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tandemedit/tandem/internal/config"
	"github.com/tandemedit/tandem/internal/errors"
	"github.com/tandemedit/tandem/internal/protocol"
)

const (
	// Automatic port scan range shared by both roles.
	defaultPortRangeStart = 3000
	defaultPortRangeEnd   = 4000

	// retryInterval is the backoff after any rendezvous failure: bind
	// failure, empty scan, or a dropped connection.
	retryInterval = 5 * time.Second

	// scanConnectTimeout bounds each probe dial during a port scan.
	scanConnectTimeout = 500 * time.Millisecond

	// handshakeTimeout bounds the wait for the peer's handshake line on a
	// fresh socket: the HANDSHAKE on the scanner side, the ack on the
	// listener side. Handshake writes are bounded by writeTimeout.
	handshakeTimeout = 5 * time.Second

	// writeTimeout bounds a single frame write.
	writeTimeout = 5 * time.Second

	// shutdownTimeout bounds Disable's wait for transport goroutines.
	shutdownTimeout = 5 * time.Second

	defaultHeartbeatInterval = 2 * time.Second
	defaultHeartbeatTimeout  = 6 * time.Second
)

// State is the connection state visible to callers.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config fixes the transport's role and rendezvous parameters at
// construction.
type Config struct {
	Role        string // config.RoleListener or config.RoleScanner
	ProjectPath string
	IDEType     string
	IDEName     string

	UseCustomPort bool
	CustomPort    int

	// Scan range; zero values fall back to 3000-4000.
	PortRangeStart int
	PortRangeEnd   int
}

// Transport owns its sockets and goroutines. Higher layers interact
// through Send, the message callback, and the coalesced state callback.
type Transport struct {
	cfg    Config
	logger *slog.Logger

	onMessage func(frame []byte)
	onState   func(s State)

	state   atomic.Int32
	enabled atomic.Bool

	// lastBeat is the unix-millisecond stamp of the most recent
	// heartbeat traffic from the peer.
	lastBeat atomic.Int64

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration

	mu       sync.Mutex
	conn     *frameConn
	listener net.Listener
	cancel   context.CancelFunc

	writeMu sync.Mutex

	wg sync.WaitGroup
}

// New builds a disabled transport.
func New(cfg Config, logger *slog.Logger) *Transport {
	if cfg.PortRangeStart == 0 {
		cfg.PortRangeStart = defaultPortRangeStart
	}
	if cfg.PortRangeEnd == 0 {
		cfg.PortRangeEnd = defaultPortRangeEnd
	}

	return &Transport{
		cfg:               cfg,
		logger:            logger,
		heartbeatInterval: defaultHeartbeatInterval,
		heartbeatTimeout:  defaultHeartbeatTimeout,
	}
}

// SetOnMessage registers the sync-frame callback. Control frames never
// reach it. Must be called before Enable.
func (t *Transport) SetOnMessage(fn func(frame []byte)) {
	t.onMessage = fn
}

// SetOnState registers the coalesced state callback. Must be called
// before Enable.
func (t *Transport) SetOnState(fn func(s State)) {
	t.onState = fn
}

// State returns the current connection state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// Enable starts the rendezvous loop for this transport's role. Safe to
// call when already enabled.
func (t *Transport) Enable() {
	if !t.enabled.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if t.cfg.Role == config.RoleScanner {
			t.runScanner(ctx)
		} else {
			t.runListener(ctx)
		}
		t.setState(StateDisconnected)
	}()

	t.logger.Info("transport enabled",
		slog.String("role", t.cfg.Role),
		slog.String("project", t.cfg.ProjectPath),
	)
}

// Disable stops auto-reconnect, tears down sockets, and joins the
// transport goroutines with a bounded wait.
func (t *Transport) Disable() {
	if !t.enabled.CompareAndSwap(true, false) {
		return
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.listener != nil {
		t.listener.Close()
		t.listener = nil
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		t.logger.Warn("transport goroutines did not exit before timeout")
	}

	t.setState(StateDisconnected)
	t.logger.Info("transport disabled")
}

// Restart tears the transport down and brings it back up.
func (t *Transport) Restart() {
	t.Disable()
	t.Enable()
}

// Send serializes the wrapper and writes one line. Returns false,
// without error, when not connected, when the frame is oversized, or
// when the write fails; the caller does not retry.
func (t *Transport) Send(w protocol.MessageWrapper) bool {
	if t.State() != StateConnected {
		return false
	}

	t.mu.Lock()
	fc := t.conn
	t.mu.Unlock()
	if fc == nil {
		return false
	}

	if err := t.writeFrame(fc, w); err != nil {
		if stderrors.Is(err, errors.ErrFrameTooLarge) {
			t.logger.Warn("dropping oversized outbound message",
				slog.String("message_id", w.MessageID),
			)
			return false
		}
		t.logger.Warn("send failed",
			slog.String("conn", fc.id),
			slog.String("error", err.Error()),
		)
		// A failed write means the stream is broken. Closing the socket
		// lets the session loop demote the state to connecting.
		fc.Close()
		return false
	}

	return true
}

// writeFrame encodes v and writes it on fc under the write mutex. The
// queue worker, the heartbeat loop, and ack replies all write here.
func (t *Transport) writeFrame(fc *frameConn, v any) error {
	data, err := protocol.EncodeFrame(v)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	fc.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err = fc.c.Write(data)
	return err
}

// adopt installs fc as the active connection, closing any previous one.
// A newer completed handshake always wins.
func (t *Transport) adopt(fc *frameConn) {
	t.mu.Lock()
	old := t.conn
	t.conn = fc
	t.mu.Unlock()

	if old != nil {
		t.logger.Info("replacing connection",
			slog.String("old_conn", old.id),
			slog.String("new_conn", fc.id),
		)
		old.Close()
	}

	t.lastBeat.Store(time.Now().UnixMilli())
	t.setState(StateConnected)
}

// clear forgets fc if it is still the active connection and demotes the
// state. A connection replaced by adopt does not demote anything.
func (t *Transport) clear(fc *frameConn, ctx context.Context) {
	t.mu.Lock()
	active := t.conn == fc
	if active {
		t.conn = nil
	}
	t.mu.Unlock()

	fc.Close()

	if active && t.enabled.Load() && ctx.Err() == nil {
		t.setState(StateConnecting)
	}
}

// setState coalesces transitions: re-entering the current state fires
// no callback.
func (t *Transport) setState(s State) {
	if State(t.state.Swap(int32(s))) == s {
		return
	}

	t.logger.Debug("transport state", slog.String("state", s.String()))
	if t.onState != nil {
		t.onState(s)
	}
}
