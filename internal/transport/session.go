package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tandemedit/tandem/internal/errors"
	"github.com/tandemedit/tandem/internal/protocol"
	"golang.org/x/sync/errgroup"
)

// runSession drives one connected peer: a read loop and a heartbeat
// loop, torn down together when either fails. Returns once the
// connection is dead; the caller decides whether to rescan or keep
// accepting.
func (t *Transport) runSession(ctx context.Context, fc *frameConn) {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(sctx)

	g.Go(func() error {
		return t.readLoop(fc)
	})

	g.Go(func() error {
		return t.heartbeatLoop(gctx, fc)
	})

	// Reads block in the kernel; closing the socket is the interrupt.
	g.Go(func() error {
		<-gctx.Done()
		fc.Close()
		return nil
	})

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		t.logger.Info("connection lost",
			slog.String("conn", fc.id),
			slog.String("error", err.Error()),
		)
	}

	t.clear(fc, ctx)
}

// readLoop reassembles frames and dispatches them. Heartbeat frames are
// consumed here and never forwarded to the inbound processor.
func (t *Transport) readLoop(fc *frameConn) error {
	for {
		frame, err := fc.ReadFrame()
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		t.dispatch(fc, frame)
	}
}

func (t *Transport) dispatch(fc *frameConn, frame []byte) {
	switch protocol.FrameType(frame) {
	case protocol.TypeHeartbeat:
		t.lastBeat.Store(time.Now().UnixMilli())

		var hb protocol.Heartbeat
		if err := json.Unmarshal(frame, &hb); err != nil {
			t.logger.Warn("bad heartbeat frame", slog.String("conn", fc.id))
			return
		}
		ack := protocol.HeartbeatAck{
			Type:      protocol.TypeHeartbeatAck,
			Timestamp: hb.Timestamp,
		}
		if err := t.writeFrame(fc, ack); err != nil {
			t.logger.Debug("heartbeat ack failed",
				slog.String("conn", fc.id),
				slog.String("error", err.Error()),
			)
		}

	case protocol.TypeHeartbeatAck:
		now := time.Now().UnixMilli()
		t.lastBeat.Store(now)

		var ack protocol.HeartbeatAck
		if err := json.Unmarshal(frame, &ack); err == nil && ack.Timestamp > 0 {
			t.logger.Debug("heartbeat rtt",
				slog.String("conn", fc.id),
				slog.Int64("rtt_ms", now-ack.Timestamp),
			)
		}

	case protocol.TypeHandshake, protocol.TypeHandshakeAck:
		// A handshake frame after promotion is a confused peer.
		t.logger.Debug("unexpected handshake frame on live connection",
			slog.String("conn", fc.id),
		)

	default:
		if t.onMessage != nil {
			t.onMessage(frame)
		}
	}
}

// heartbeatLoop emits a heartbeat every interval and declares the peer
// dead when no heartbeat traffic arrived within the timeout (three
// missed beats).
func (t *Transport) heartbeatLoop(ctx context.Context, fc *frameConn) error {
	ticker := time.NewTicker(t.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			elapsed := time.Duration(time.Now().UnixMilli()-t.lastBeat.Load()) * time.Millisecond
			if elapsed > t.heartbeatTimeout {
				t.logger.Warn("peer heartbeat timed out",
					slog.String("conn", fc.id),
					slog.Duration("since_last", elapsed),
				)
				return errors.ErrPeerTimeout
			}

			hb := protocol.Heartbeat{
				Type:        protocol.TypeHeartbeat,
				Timestamp:   time.Now().UnixMilli(),
				ProjectPath: t.cfg.ProjectPath,
			}
			if err := t.writeFrame(fc, hb); err != nil {
				return fmt.Errorf("sending heartbeat: %w", err)
			}
		}
	}
}
