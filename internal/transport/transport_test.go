package transport

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandemedit/tandem/internal/config"
	"github.com/tandemedit/tandem/internal/errors"
	"github.com/tandemedit/tandem/internal/logging"
	"github.com/tandemedit/tandem/internal/protocol"
)

var testLogger = logging.Discard()

// freePort grabs an ephemeral port and releases it for the transport
// under test to claim.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// tcpPair returns both ends of a live loopback connection.
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		server, err = ln.Accept()
		close(done)
	}()

	client, dialErr := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, dialErr)
	<-done
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

// stateRecorder collects coalesced state transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func (r *stateRecorder) waitFor(t *testing.T, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, s := range r.all() {
			if s == want {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state %v never reached, saw %v", want, r.all())
}

func newPair(t *testing.T, listenerProject, scannerProject string) (lis, scan *Transport, lisStates, scanStates *stateRecorder) {
	t.Helper()
	port := freePort(t)

	lis = New(Config{
		Role:           config.RoleListener,
		ProjectPath:    listenerProject,
		IDEType:        "X",
		IDEName:        "X 1.0",
		PortRangeStart: port,
		PortRangeEnd:   port,
	}, testLogger)

	scan = New(Config{
		Role:           config.RoleScanner,
		ProjectPath:    scannerProject,
		IDEType:        "Y",
		IDEName:        "Y 1.0",
		PortRangeStart: port,
		PortRangeEnd:   port,
	}, testLogger)

	lisStates = &stateRecorder{}
	scanStates = &stateRecorder{}
	lis.SetOnState(lisStates.record)
	scan.SetOnState(scanStates.record)

	t.Cleanup(func() {
		scan.Disable()
		lis.Disable()
	})
	return lis, scan, lisStates, scanStates
}

// --- frameConn ---

func TestFrameConn_ReassemblesSplitWrites(t *testing.T) {
	client, server := tcpPair(t)
	fc := newFrameConn(server)

	go func() {
		client.Write([]byte(`{"type":"HEART`))
		time.Sleep(20 * time.Millisecond)
		client.Write([]byte("BEAT\"}\n{\"type\":\"HEARTBEAT_ACK\"}\n"))
	}()

	frame, err := fc.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeHeartbeat, protocol.FrameType(frame))

	frame, err = fc.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeHeartbeatAck, protocol.FrameType(frame))
}

func TestFrameConn_DeadlineExpires(t *testing.T) {
	_, server := tcpPair(t)
	fc := newFrameConn(server)

	_, err := fc.ReadFrameDeadline(50 * time.Millisecond)
	assert.Error(t, err)
}

// --- handshake ---

func TestHandshake_SameProjectConnects(t *testing.T) {
	lis, scan, lisStates, scanStates := newPair(t, "/home/u/proj", "/home/u/proj")

	var (
		mu     sync.Mutex
		frames [][]byte
	)
	lis.SetOnMessage(func(frame []byte) {
		mu.Lock()
		frames = append(frames, append([]byte(nil), frame...))
		mu.Unlock()
	})

	lis.Enable()
	lisStates.waitFor(t, StateConnecting, 2*time.Second) // bound and accepting
	scan.Enable()

	lisStates.waitFor(t, StateConnected, 5*time.Second)
	scanStates.waitFor(t, StateConnected, 5*time.Second)

	// A sync message flows scanner -> listener and arrives intact.
	sent := protocol.MessageWrapper{
		MessageID: "peer-1-1",
		SenderID:  "peer",
		Timestamp: 1700000000000,
		Payload: protocol.EditorState{
			Action:   protocol.ActionOpen,
			FilePath: "/home/u/proj/a.go",
			IsActive: true,
		},
	}
	require.Eventually(t, func() bool { return scan.Send(sent) }, 2*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	var got protocol.MessageWrapper
	require.NoError(t, json.Unmarshal(frames[0], &got))
	mu.Unlock()
	assert.Equal(t, sent, got)
}

func TestHandshake_PrefixProjectPathsMatch(t *testing.T) {
	_, _, lisStates, scanStates := newPairEnabled(t, "/home/u/proj", "/home/u/proj/nested")

	lisStates.waitFor(t, StateConnected, 5*time.Second)
	scanStates.waitFor(t, StateConnected, 5*time.Second)
}

func newPairEnabled(t *testing.T, lp, sp string) (lis, scan *Transport, lisStates, scanStates *stateRecorder) {
	t.Helper()
	lis, scan, lisStates, scanStates = newPair(t, lp, sp)
	lis.Enable()
	lisStates.waitFor(t, StateConnecting, 2*time.Second)
	scan.Enable()
	return
}

func TestHandshake_PathMismatchStaysDisconnected(t *testing.T) {
	lis, scan, lisStates, scanStates := newPair(t, "/home/u/proj", "/home/u/other")

	lis.Enable()
	lisStates.waitFor(t, StateConnecting, 2*time.Second)
	scan.Enable()

	time.Sleep(700 * time.Millisecond)

	assert.NotEqual(t, StateConnected, lis.State())
	assert.NotEqual(t, StateConnected, scan.State())
	assert.NotContains(t, lisStates.all(), StateConnected)
	assert.NotContains(t, scanStates.all(), StateConnected)
}

// --- send semantics ---

func TestSend_FalseWhenDisconnected(t *testing.T) {
	tr := New(Config{Role: config.RoleScanner, ProjectPath: "/p"}, testLogger)

	assert.False(t, tr.Send(protocol.MessageWrapper{MessageID: "m"}))
}

// --- heartbeat ---

func TestHeartbeatLoop_SendsBeats(t *testing.T) {
	client, server := tcpPair(t)
	fc := newFrameConn(server)

	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)
	tr.heartbeatInterval = 30 * time.Millisecond
	tr.heartbeatTimeout = 10 * time.Second
	tr.lastBeat.Store(time.Now().UnixMilli())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.heartbeatLoop(ctx, fc)

	reader := newFrameConn(client)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := reader.ReadFrame()
	require.NoError(t, err)

	var hb protocol.Heartbeat
	require.NoError(t, json.Unmarshal(frame, &hb))
	assert.Equal(t, protocol.TypeHeartbeat, hb.Type)
	assert.Equal(t, "/p", hb.ProjectPath)
	assert.Positive(t, hb.Timestamp)
}

func TestHeartbeatLoop_TimesOutSilentPeer(t *testing.T) {
	_, server := tcpPair(t)
	fc := newFrameConn(server)

	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)
	tr.heartbeatInterval = 30 * time.Millisecond
	tr.heartbeatTimeout = 90 * time.Millisecond
	tr.lastBeat.Store(time.Now().Add(-10 * time.Second).UnixMilli())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- tr.heartbeatLoop(ctx, fc) }()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, errors.ErrPeerTimeout)
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat loop did not time out")
	}
}

func TestDispatch_HeartbeatAnsweredAndNotForwarded(t *testing.T) {
	client, server := tcpPair(t)
	fc := newFrameConn(server)

	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)

	var forwarded [][]byte
	tr.SetOnMessage(func(frame []byte) { forwarded = append(forwarded, frame) })

	hb, err := json.Marshal(protocol.Heartbeat{
		Type:        protocol.TypeHeartbeat,
		Timestamp:   12345,
		ProjectPath: "/p",
	})
	require.NoError(t, err)
	tr.dispatch(fc, hb)

	// The ack went to the peer with the echoed timestamp.
	reader := newFrameConn(client)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := reader.ReadFrame()
	require.NoError(t, err)

	var ack protocol.HeartbeatAck
	require.NoError(t, json.Unmarshal(frame, &ack))
	assert.Equal(t, protocol.TypeHeartbeatAck, ack.Type)
	assert.Equal(t, int64(12345), ack.Timestamp)

	// Heartbeat traffic never reaches the inbound processor.
	assert.Empty(t, forwarded)
	assert.Positive(t, tr.lastBeat.Load())
}

func TestDispatch_SyncFrameForwarded(t *testing.T) {
	_, server := tcpPair(t)
	fc := newFrameConn(server)

	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)

	var forwarded [][]byte
	tr.SetOnMessage(func(frame []byte) { forwarded = append(forwarded, frame) })

	tr.dispatch(fc, []byte(`{"messageId":"a-1-2","senderId":"a","payload":{}}`))

	require.Len(t, forwarded, 1)
}

// --- connection replacement ---

func TestAdopt_ReplacesOlderConnection(t *testing.T) {
	_, server1 := tcpPair(t)
	_, server2 := tcpPair(t)
	fc1 := newFrameConn(server1)
	fc2 := newFrameConn(server2)

	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)
	tr.enabled.Store(true)

	tr.adopt(fc1)
	require.Equal(t, StateConnected, tr.State())

	tr.adopt(fc2)
	assert.Equal(t, StateConnected, tr.State())

	// The first socket is closed; reading it fails immediately.
	server1.SetReadDeadline(time.Now().Add(time.Second))
	_, err := fc1.ReadFrame()
	assert.Error(t, err)

	// Clearing the replaced connection must not demote the state.
	tr.clear(fc1, context.Background())
	assert.Equal(t, StateConnected, tr.State())

	tr.clear(fc2, context.Background())
	assert.Equal(t, StateConnecting, tr.State())
}

// --- state coalescing ---

func TestSetState_Coalesced(t *testing.T) {
	tr := New(Config{Role: config.RoleListener, ProjectPath: "/p"}, testLogger)

	rec := &stateRecorder{}
	tr.SetOnState(rec.record)

	tr.setState(StateConnecting)
	tr.setState(StateConnecting)
	tr.setState(StateConnected)
	tr.setState(StateConnected)
	tr.setState(StateDisconnected)

	assert.Equal(t, []State{StateConnecting, StateConnected, StateDisconnected}, rec.all())
}

// --- lifecycle ---

func TestDisable_Idempotent(t *testing.T) {
	tr := New(Config{Role: config.RoleScanner, ProjectPath: "/p", PortRangeStart: freePort(t), PortRangeEnd: 0}, testLogger)

	tr.Enable()
	tr.Disable()
	tr.Disable()
	assert.Equal(t, StateDisconnected, tr.State())
}
