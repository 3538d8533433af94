package p2p

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probelab/mimic/wire"
)

// silentListener accepts connections and never says anything.
func silentListener(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			// hold the socket open, reply to nothing
			go func() {
				buf := make([]byte, 1024)
				for {
					if _, err := conn.Read(buf); err != nil {
						conn.Close()
						return
					}
				}
			}()
		}
	}()

	return l.Addr().String()
}

// TestHandshakeTimeout checks that a peer that never answers our version
// produces a handshake-timeout error within the configured bound, and
// that nothing is left tracked.
func TestHandshakeTimeout(t *testing.T) {
	addr := silentListener(t)

	cfg := testConfig()
	cfg.IOTimeout = 200 * time.Millisecond
	local := NewSyntheticNode(cfg)
	defer local.Shutdown()

	start := time.Now()
	err := local.Connect(addr)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Less(t, elapsed, 2*time.Second, "timeout fired far beyond the configured bound")
	assert.Zero(t, local.ConnectedPeers())
}

// TestHandshakeTimeoutReleasesSockets repeats failing connects and
// expects the node to track nothing afterwards: every half-open socket
// must have been closed.
func TestHandshakeTimeoutReleasesSockets(t *testing.T) {
	addr := silentListener(t)

	cfg := testConfig()
	cfg.IOTimeout = 100 * time.Millisecond
	local := NewSyntheticNode(cfg)
	defer local.Shutdown()

	for i := 0; i < 10; i++ {
		err := local.Connect(addr)
		require.ErrorIs(t, err, ErrHandshakeTimeout)
	}

	assert.Zero(t, local.ConnectedPeers())
}

// TestSelfConnectionRejected dials the node's own listener; the version
// nonce comes back to us and the connection must not survive.
func TestSelfConnectionRejected(t *testing.T) {
	local := NewSyntheticNode(testConfig())
	defer local.Shutdown()

	addr, err := local.Listen("127.0.0.1:0")
	require.NoError(t, err)

	require.Error(t, local.Connect(addr.String()))

	require.Eventually(t, func() bool {
		return local.ConnectedPeers() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestHandshakeRejectsWrongMessage ensures a peer opening with anything
// but a version message is refused.
func TestHandshakeRejectsWrongMessage(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// read the dialer's version, answer with a ping
		if _, _, err := wire.ReadMessage(conn); err != nil {
			return
		}
		wire.WriteMessage(conn, &wire.Ping{Nonce: 1})

		// keep the socket open until the dialer gives up
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	local := NewSyntheticNode(testConfig())
	defer local.Shutdown()

	err = local.Connect(l.Addr().String())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHandshakeTimeout)
	assert.Zero(t, local.ConnectedPeers())
}
