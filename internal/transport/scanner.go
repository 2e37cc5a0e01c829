package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tandemedit/tandem/internal/pathutil"
	"github.com/tandemedit/tandem/internal/protocol"
)

// runScanner probes loopback ports for a listener on the same project.
// Each dropped or never-found connection schedules a rescan after the
// retry interval.
func (t *Transport) runScanner(ctx context.Context) {
	bo := backoff.NewConstantBackOff(retryInterval)

	for ctx.Err() == nil {
		t.setState(StateConnecting)

		fc := t.scanOnce(ctx)
		if fc == nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Debug("no listener found, rescanning",
				slog.Duration("retry_in", retryInterval),
			)
			if !sleepCtx(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		t.adopt(fc)
		t.runSession(ctx, fc)

		if ctx.Err() != nil {
			return
		}
		t.setState(StateConnecting)
		if !sleepCtx(ctx, bo.NextBackOff()) {
			return
		}
	}
}

// scanOnce walks the candidate ports and returns the first socket whose
// handshake matches this project, or nil when none do.
func (t *Transport) scanOnce(ctx context.Context) *frameConn {
	for _, port := range t.candidatePorts() {
		if ctx.Err() != nil {
			return nil
		}

		fc, err := t.probe(port)
		if err != nil {
			continue
		}
		return fc
	}
	return nil
}

// candidatePorts puts the custom port first when enabled, then the scan
// range.
func (t *Transport) candidatePorts() []int {
	var ports []int
	if t.cfg.UseCustomPort {
		ports = append(ports, t.cfg.CustomPort)
	}
	for p := t.cfg.PortRangeStart; p <= t.cfg.PortRangeEnd; p++ {
		if t.cfg.UseCustomPort && p == t.cfg.CustomPort {
			continue
		}
		ports = append(ports, p)
	}
	return ports
}

// probe dials one port, reads a single line expecting a handshake, and
// completes the exchange when the project path matches. Mismatches are
// silent: another pair of IDEs may legitimately own that port.
func (t *Transport) probe(port int) (*frameConn, error) {
	conn, err := net.DialTimeout("tcp", loopbackAddr(port), scanConnectTimeout)
	if err != nil {
		return nil, err
	}

	fc := newFrameConn(conn)

	frame, err := fc.ReadFrameDeadline(handshakeTimeout)
	if err != nil {
		fc.Close()
		return nil, err
	}

	var hs protocol.Handshake
	if err := json.Unmarshal(frame, &hs); err != nil || hs.Type != protocol.TypeHandshake {
		fc.Close()
		return nil, fmt.Errorf("not a handshake")
	}

	if !pathutil.Match(hs.ProjectPath, t.cfg.ProjectPath) {
		fc.Close()
		return nil, fmt.Errorf("project mismatch")
	}

	ack := protocol.HandshakeAck{
		Type:        protocol.TypeHandshakeAck,
		ProjectPath: t.cfg.ProjectPath,
		IDEType:     t.cfg.IDEType,
		IDEName:     t.cfg.IDEName,
	}
	if err := t.writeFrame(fc, ack); err != nil {
		fc.Close()
		return nil, err
	}

	t.logger.Info("connected to listener",
		slog.String("conn", fc.id),
		slog.Int("port", port),
		slog.String("peer_ide", hs.IDEName),
	)
	return fc, nil
}

// decodeAck parses and validates a handshake ack frame.
func decodeAck(frame []byte) (protocol.HandshakeAck, error) {
	var ack protocol.HandshakeAck
	if err := json.Unmarshal(frame, &ack); err != nil {
		return ack, fmt.Errorf("decoding ack: %w", err)
	}
	if ack.Type != protocol.TypeHandshakeAck {
		return ack, fmt.Errorf("unexpected frame type %q", ack.Type)
	}
	return ack, nil
}

// sleepCtx waits for d or until the context ends. Returns false when
// the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d == backoff.Stop {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
