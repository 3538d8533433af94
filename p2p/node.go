// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package p2p implements the synthetic node: a configurable virtual peer
// that speaks the wire protocol to a node under test, indistinguishable
// on the wire from a real peer.
package p2p

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/probelab/mimic/metrics"
	"github.com/probelab/mimic/wire"
)

// Errors surfaced by synthetic node operations.
var (
	ErrPeerNotFound     = errors.New("peer connection not found")
	ErrDuplicatePeer    = errors.New("already connected to peer")
	ErrTooManyPeers     = errors.New("peer cap reached")
	ErrRecvTimeout      = errors.New("receive timed out")
	ErrHandshakeTimeout = errors.New("handshake step timed out")
	ErrSelfConnection   = errors.New("connected to self")
	ErrNodeShutdown     = errors.New("synthetic node is shut down")
)

// Metric names registered by every synthetic node.
const (
	MetricAutoReplies = "auto_replies_sent"
	MetricConnections = "connections_established"

	metricRecvPrefix = "recv_"
)

// inboundQueueLen bounds the shared queue; a full queue back-pressures
// the read loops instead of dropping messages.
const inboundQueueLen = 1024

// InboundMessage pairs a decoded message with the connection it arrived
// on.
type InboundMessage struct {
	Addr    string
	Message wire.Message
}

// SyntheticNode drives one-to-many live connections to nodes under
// test. All tracked connections feed a single inbound queue consumed by
// RecvMessageTimeout; per-connection wire order is preserved, while
// messages from different connections interleave arbitrarily.
type SyntheticNode struct {
	cfg Config
	rec *metrics.Recorder

	mu    sync.RWMutex
	conns map[string]*connection
	// sockets still in their handshake, so teardown can release them too
	pending map[net.Conn]struct{}

	listener net.Listener
	inbound  chan InboundMessage
	nonces   *nonceList

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// NewSyntheticNode builds a node from its final configuration and
// registers its counters.
func NewSyntheticNode(cfg Config) *SyntheticNode {
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.Default()
	}

	sn := &SyntheticNode{
		cfg:     cfg,
		rec:     rec,
		conns:   make(map[string]*connection),
		pending: make(map[net.Conn]struct{}),
		inbound: make(chan InboundMessage, inboundQueueLen),
		nonces:  newNonceList(),
		quit:    make(chan struct{}),
	}

	rec.RegisterCounter(MetricAutoReplies)
	rec.RegisterCounter(MetricConnections)
	for _, cmd := range wire.Commands() {
		rec.RegisterCounter(metricRecvPrefix + cmd)
	}

	return sn
}

// Connect dials addr and performs the configured handshake. On any
// failure the socket is closed and nothing is left tracked.
func (sn *SyntheticNode) Connect(addr string) error {
	if sn.isShutdown() {
		return ErrNodeShutdown
	}

	conn, err := net.DialTimeout("tcp", addr, sn.cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	if !sn.addPending(conn) {
		conn.Close()
		return ErrNodeShutdown
	}
	defer sn.removePending(conn)

	if sn.cfg.Handshake == HandshakeFull {
		if err := sn.initiateHandshake(conn); err != nil {
			conn.Close()
			return fmt.Errorf("handshake with %s: %w", addr, err)
		}
	}

	if err := sn.track(addr, conn); err != nil {
		conn.Close()
		return err
	}

	logrus.Infof("connected to peer %s", addr)
	return nil
}

// Listen starts accepting inbound connections on addr ("host:0" picks a
// free port). Accepted peers run the mirrored handshake and enter the
// same connection table as dialed ones. Returns the bound address.
func (sn *SyntheticNode) Listen(addr string) (net.Addr, error) {
	if sn.isShutdown() {
		return nil, ErrNodeShutdown
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	sn.mu.Lock()
	sn.listener = l
	sn.mu.Unlock()

	sn.wg.Add(1)
	go sn.acceptLoop(l)

	logrus.Infof("listening on %s", l.Addr())
	return l.Addr(), nil
}

func (sn *SyntheticNode) acceptLoop(l net.Listener) {
	defer sn.wg.Done()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-sn.quit:
			default:
				logrus.Warnf("accept failed: %v", err)
			}
			return
		}

		sn.wg.Add(1)
		go sn.handleAccepted(conn)
	}
}

func (sn *SyntheticNode) handleAccepted(conn net.Conn) {
	defer sn.wg.Done()

	addr := conn.RemoteAddr().String()

	if !sn.addPending(conn) {
		conn.Close()
		return
	}
	defer sn.removePending(conn)

	if sn.cfg.Handshake == HandshakeFull {
		if err := sn.respondHandshake(conn); err != nil {
			logrus.Warnf("handshake with %s failed: %v", addr, err)
			conn.Close()
			return
		}
	}

	if err := sn.track(addr, conn); err != nil {
		logrus.Warnf("rejecting %s: %v", addr, err)
		conn.Close()
		return
	}

	logrus.Infof("accepted peer %s", addr)
}

// addPending records a socket whose handshake is still running, so
// Shutdown can close it. Returns false when the node is already down.
func (sn *SyntheticNode) addPending(conn net.Conn) bool {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	if sn.isShutdown() {
		return false
	}

	sn.pending[conn] = struct{}{}
	return true
}

func (sn *SyntheticNode) removePending(conn net.Conn) {
	sn.mu.Lock()
	delete(sn.pending, conn)
	sn.mu.Unlock()
}

// track registers conn under addr and starts its read loop.
func (sn *SyntheticNode) track(addr string, conn net.Conn) error {
	c := newConnection(addr, conn, sn.cfg.IOTimeout)

	sn.mu.Lock()
	if sn.isShutdown() {
		sn.mu.Unlock()
		return ErrNodeShutdown
	}
	if _, ok := sn.conns[addr]; ok {
		sn.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicatePeer, addr)
	}
	if sn.cfg.MaxPeers > 0 && len(sn.conns) >= sn.cfg.MaxPeers {
		sn.mu.Unlock()
		return ErrTooManyPeers
	}
	sn.conns[addr] = c
	sn.mu.Unlock()

	sn.rec.IncrCounter(MetricConnections, 1)

	sn.wg.Add(1)
	go sn.readLoop(c)

	return nil
}

// dropConnection closes c and removes it from the table. Failures on one
// connection never touch the others.
func (sn *SyntheticNode) dropConnection(c *connection, reason error) {
	c.close(reason)

	sn.mu.Lock()
	if sn.conns[c.addr] == c {
		delete(sn.conns, c.addr)
	}
	sn.mu.Unlock()
}

// readLoop continuously decodes inbound frames, answers those covered by
// the auto-reply policy and pushes everything onto the shared queue.
//
// NOTE: This method MUST be run as a goroutine.
func (sn *SyntheticNode) readLoop(c *connection) {
	defer sn.wg.Done()

	input := bufio.NewReader(c.conn)
	for {
		msg, read, err := wire.ReadMessage(input)
		if err != nil {
			if c.closed() || sn.isShutdown() {
				sn.dropConnection(c, err)
				return
			}

			switch {
			case wire.IsDecodeError(err):
				// Protocol violation: terminate this connection only.
				logrus.Warnf("peer %s broke protocol: %v", c.addr, err)
			case errors.Is(err, io.EOF):
				logrus.Debugf("peer %s disconnected", c.addr)
			default:
				logrus.Warnf("transport error on %s: %v", c.addr, err)
			}

			sn.dropConnection(c, err)
			return
		}

		c.addBytesReceived(read)
		sn.rec.IncrCounter(metricRecvPrefix+msg.Command(), 1)
		logrus.Debugf("received %s from %s", msg.Command(), c.addr)

		if version, ok := msg.(*wire.Version); ok && sn.nonces.contains(version.Nonce) {
			logrus.Warnf("peer %s echoed our own nonce", c.addr)
			sn.dropConnection(c, ErrSelfConnection)
			return
		}

		if sn.cfg.AutoReply == AutoReplyAll {
			if reply := canonicalReply(msg); reply != nil {
				if err := c.writeMessage(reply); err != nil {
					sn.dropConnection(c, err)
					return
				}
				sn.rec.IncrCounter(MetricAutoReplies, 1)
			}
		}

		// Auto-replied messages are still queued so callers can observe
		// them.
		select {
		case sn.inbound <- InboundMessage{Addr: c.addr, Message: msg}:
		case <-c.quit:
			sn.dropConnection(c, nil)
			return
		case <-sn.quit:
			sn.dropConnection(c, ErrNodeShutdown)
			return
		}
	}
}

// canonicalReply returns the canonical response for msg, or nil when
// there is none.
func canonicalReply(msg wire.Message) wire.Message {
	switch m := msg.(type) {
	case *wire.Ping:
		return &wire.Pong{Nonce: m.Nonce}
	case *wire.Version:
		return &wire.Verack{}
	case *wire.GetAddr:
		return &wire.Addr{}
	default:
		return nil
	}
}

// SendDirectMessage encodes and writes one message to the named
// connection. Fire-and-forget.
func (sn *SyntheticNode) SendDirectMessage(addr string, msg wire.Message) error {
	sn.mu.RLock()
	c, ok := sn.conns[addr]
	sn.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, addr)
	}

	return c.writeMessage(msg)
}

// RecvMessageTimeout blocks until a decoded inbound message is available
// from any tracked connection, or d elapses. A timeout is benign:
// messages already queued stay queued for the next call.
func (sn *SyntheticNode) RecvMessageTimeout(d time.Duration) (string, wire.Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case im := <-sn.inbound:
		return im.Addr, im.Message, nil
	case <-timer.C:
		return "", nil, ErrRecvTimeout
	case <-sn.quit:
		// Drain anything decoded before shutdown.
		select {
		case im := <-sn.inbound:
			return im.Addr, im.Message, nil
		default:
			return "", nil, ErrNodeShutdown
		}
	}
}

// Disconnect closes the named connection.
func (sn *SyntheticNode) Disconnect(addr string) error {
	sn.mu.RLock()
	c, ok := sn.conns[addr]
	sn.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, addr)
	}

	sn.dropConnection(c, nil)
	return nil
}

// DisconnectAll closes every live connection. The node stays usable for
// new dials, unlike Shutdown.
func (sn *SyntheticNode) DisconnectAll() {
	sn.mu.Lock()
	conns := make([]*connection, 0, len(sn.conns))
	for _, c := range sn.conns {
		conns = append(conns, c)
	}
	sn.mu.Unlock()

	for _, c := range conns {
		sn.dropConnection(c, nil)
	}
}

// ConnectedPeers returns the number of live connections.
func (sn *SyntheticNode) ConnectedPeers() int {
	sn.mu.RLock()
	defer sn.mu.RUnlock()
	return len(sn.conns)
}

// PeerAddrs lists the addresses of all live connections.
func (sn *SyntheticNode) PeerAddrs() []string {
	sn.mu.RLock()
	defer sn.mu.RUnlock()

	addrs := make([]string, 0, len(sn.conns))
	for addr := range sn.conns {
		addrs = append(addrs, addr)
	}
	return addrs
}

// BytesTransferred reports the bytes sent and received on the named
// connection.
func (sn *SyntheticNode) BytesTransferred(addr string) (sent, received uint64, err error) {
	sn.mu.RLock()
	c, ok := sn.conns[addr]
	sn.mu.RUnlock()

	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrPeerNotFound, addr)
	}

	return c.BytesSent(), c.BytesReceived(), nil
}

func (sn *SyntheticNode) isShutdown() bool {
	select {
	case <-sn.quit:
		return true
	default:
		return false
	}
}

// Shutdown closes the listener and every connection, mid-handshake or
// not, and waits for all loops to exit. Idempotent; no socket survives
// it.
func (sn *SyntheticNode) Shutdown() {
	sn.quitOnce.Do(func() {
		close(sn.quit)

		sn.mu.Lock()
		if sn.listener != nil {
			sn.listener.Close()
		}
		conns := make([]*connection, 0, len(sn.conns))
		for _, c := range sn.conns {
			conns = append(conns, c)
		}
		for conn := range sn.pending {
			conn.Close()
		}
		sn.mu.Unlock()

		for _, c := range conns {
			c.close(ErrNodeShutdown)
		}

		sn.wg.Wait()
		logrus.Info("synthetic node shut down")
	})
}
