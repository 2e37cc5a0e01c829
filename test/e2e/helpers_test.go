package e2e_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tandemedit/tandem/internal/config"
	"github.com/tandemedit/tandem/internal/core"
	"github.com/tandemedit/tandem/internal/host"
	"github.com/tandemedit/tandem/internal/logging"
	"github.com/tandemedit/tandem/internal/transport"
)

const testProject = "/home/u/proj"

// harness holds a full listener/scanner pair: two cores against
// in-memory host adapters, talking over real loopback TCP.
type harness struct {
	HostA *host.Headless // listener side
	HostB *host.Headless // scanner side
	CoreA *core.Core
	CoreB *core.Core

	mu     sync.Mutex
	states map[string][]transport.State
}

// freePort grabs an ephemeral port and releases it for the pair to
// claim as their custom port.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(role string, port int) *config.Config {
	return &config.Config{
		Role:          role,
		ProjectPath:   testProject,
		IDEType:       "X",
		IDEName:       "X 1.0",
		Family:        config.FamilyA,
		UseCustomPort: true,
		CustomPort:    port,
		Environment:   "development",
	}
}

// newHarness builds both cores, starts them, enables sync, and waits
// for the pair to connect.
func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logging.Discard()
	port := freePort(t)

	h := &harness{
		HostA:  host.NewHeadless(),
		HostB:  host.NewHeadless(),
		states: make(map[string][]transport.State),
	}

	h.CoreA = core.New(testConfig(config.RoleListener, port), h.HostA, logger)
	// Both cores live in this one process, and the instance ID is built
	// from hostname, project hash and PID: on an identical project path
	// they would share an ID and each would drop the other's messages as
	// its own. The scanner opens a nested root instead, which the prefix
	// path match still pairs with the listener.
	cfgB := testConfig(config.RoleScanner, port)
	cfgB.ProjectPath = testProject + "/scanner"
	h.CoreB = core.New(cfgB, h.HostB, logger)

	h.CoreA.SetOnState(func(s transport.State) { h.recordState("A", s) })
	h.CoreB.SetOnState(func(s transport.State) { h.recordState("B", s) })

	h.CoreA.Start()
	h.CoreB.Start()
	t.Cleanup(func() {
		h.CoreB.Dispose()
		h.CoreA.Dispose()
	})

	h.CoreA.Enable()
	h.CoreB.Enable()

	require.Eventually(t, func() bool {
		return h.CoreA.State() == transport.StateConnected &&
			h.CoreB.State() == transport.StateConnected
	}, 10*time.Second, 25*time.Millisecond, "pair never connected")

	require.Eventually(t, func() bool {
		return h.HostA.FocusCallbackAttached() && h.HostB.FocusCallbackAttached()
	}, 5*time.Second, 10*time.Millisecond, "focus listeners never attached")

	return h
}

func (h *harness) recordState(side string, s transport.State) {
	h.mu.Lock()
	h.states[side] = append(h.states[side], s)
	h.mu.Unlock()
}

// waitOpen polls until the adapter shows the path among its open tabs.
func waitOpen(t *testing.T, adapter *host.Headless, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, p := range adapter.OpenFiles() {
			if p == path {
				return true
			}
		}
		return false
	}, 5*time.Second, 25*time.Millisecond, "%s never opened", path)
}

// waitClosed polls until the adapter no longer shows the path.
func waitClosed(t *testing.T, adapter *host.Headless, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, p := range adapter.OpenFiles() {
			if p == path {
				return false
			}
		}
		return true
	}, 5*time.Second, 25*time.Millisecond, "%s never closed", path)
}
