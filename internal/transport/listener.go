package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tandemedit/tandem/internal/pathutil"
	"github.com/tandemedit/tandem/internal/protocol"
)

// runListener binds a loopback port and accepts handshakes until the
// context ends. The listener stays bound while a peer is connected; a
// second completed handshake replaces the first connection atomically.
func (t *Transport) runListener(ctx context.Context) {
	ln := t.bindWithRetry(ctx)
	if ln == nil {
		return
	}

	t.mu.Lock()
	t.listener = ln
	t.mu.Unlock()

	port := ln.Addr().(*net.TCPAddr).Port
	t.logger.Info("listening", slog.Int("port", port))
	t.setState(StateConnecting)

	// Unblock Accept when the context ends.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn("accept failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryInterval):
				continue
			}
		}

		fc := newFrameConn(conn)
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.serveAccepted(ctx, fc, port)
		}()
	}
}

// bindWithRetry applies the port policy: the custom port when enabled,
// falling back to the automatic scan, retrying the whole attempt every
// five seconds until something binds or the context ends.
func (t *Transport) bindWithRetry(ctx context.Context) net.Listener {
	var ln net.Listener

	bo := backoff.WithContext(backoff.NewConstantBackOff(retryInterval), ctx)
	err := backoff.Retry(func() error {
		var bindErr error
		ln, bindErr = t.bind()
		if bindErr != nil {
			t.logger.Warn("no port available, retrying",
				slog.Duration("retry_in", retryInterval),
				slog.String("error", bindErr.Error()),
			)
		}
		return bindErr
	}, bo)
	if err != nil {
		return nil
	}
	return ln
}

func (t *Transport) bind() (net.Listener, error) {
	if t.cfg.UseCustomPort {
		ln, err := net.Listen("tcp", loopbackAddr(t.cfg.CustomPort))
		if err == nil {
			return ln, nil
		}
		t.logger.Warn("custom port bind failed, falling back to scan",
			slog.Int("port", t.cfg.CustomPort),
			slog.String("error", err.Error()),
		)
	}

	for port := t.cfg.PortRangeStart; port <= t.cfg.PortRangeEnd; port++ {
		ln, err := net.Listen("tcp", loopbackAddr(port))
		if err == nil {
			return ln, nil
		}
	}

	return nil, fmt.Errorf("no free port in [%d, %d]", t.cfg.PortRangeStart, t.cfg.PortRangeEnd)
}

// serveAccepted runs the listener side of the handshake and, on
// success, promotes the socket to the active session.
func (t *Transport) serveAccepted(ctx context.Context, fc *frameConn, port int) {
	hs := protocol.Handshake{
		Type:        protocol.TypeHandshake,
		ProjectPath: t.cfg.ProjectPath,
		IDEType:     t.cfg.IDEType,
		IDEName:     t.cfg.IDEName,
		Port:        port,
	}
	if err := t.writeFrame(fc, hs); err != nil {
		t.logger.Warn("sending handshake failed",
			slog.String("conn", fc.id),
			slog.String("error", err.Error()),
		)
		fc.Close()
		return
	}

	frame, err := fc.ReadFrameDeadline(handshakeTimeout)
	if err != nil {
		t.logger.Debug("no handshake ack",
			slog.String("conn", fc.id),
			slog.String("error", err.Error()),
		)
		fc.Close()
		return
	}

	ack, err := decodeAck(frame)
	if err != nil {
		t.logger.Warn("bad handshake ack",
			slog.String("conn", fc.id),
			slog.String("error", err.Error()),
		)
		fc.Close()
		return
	}

	if !pathutil.Match(ack.ProjectPath, t.cfg.ProjectPath) {
		t.logger.Info("handshake path mismatch, closing",
			slog.String("conn", fc.id),
			slog.String("peer_project", ack.ProjectPath),
		)
		fc.Close()
		return
	}

	t.logger.Info("peer connected",
		slog.String("conn", fc.id),
		slog.String("peer_ide", ack.IDEName),
	)

	t.adopt(fc)
	t.runSession(ctx, fc)
}

func loopbackAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}
