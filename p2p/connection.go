// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package p2p

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/probelab/mimic/wire"
)

// connection is one live TCP stream to a peer, owned exclusively by a
// single synthetic node. Only the node's read loop reads from it, and
// all writes go through writeMessage so outbound frames never
// interleave.
type connection struct {
	addr string
	conn net.Conn

	// The following fields are only meant to be used *atomically*.
	bytesReceived uint64
	bytesSent     uint64

	writeMu   sync.Mutex
	ioTimeout time.Duration

	quit      chan struct{}
	closeOnce sync.Once
}

func newConnection(addr string, conn net.Conn, ioTimeout time.Duration) *connection {
	return &connection{
		addr:      addr,
		conn:      conn,
		ioTimeout: ioTimeout,
		quit:      make(chan struct{}),
	}
}

// writeMessage encodes and writes one message under the single-writer
// lock. Fire-and-forget: it does not wait for any response.
func (c *connection) writeMessage(msg wire.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.quit:
		return fmt.Errorf("%w: %s", ErrPeerNotFound, c.addr)
	default:
	}

	if c.ioTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.ioTimeout))
	}

	written, err := wire.WriteMessage(c.conn, msg)
	atomic.AddUint64(&c.bytesSent, written)
	if err != nil {
		return fmt.Errorf("write %s to %s: %w", msg.Command(), c.addr, err)
	}

	logrus.Debugf("sent %s to %s", msg.Command(), c.addr)
	return nil
}

// close shuts the socket down. Safe to call from any goroutine, any
// number of times.
func (c *connection) close(reason error) {
	c.closeOnce.Do(func() {
		logrus.Debugf("closing connection %s: %v", c.addr, reason)
		close(c.quit)
		c.conn.Close()
	})
}

// closed reports whether close has run.
func (c *connection) closed() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

func (c *connection) addBytesReceived(n uint64) {
	atomic.AddUint64(&c.bytesReceived, n)
}

// BytesSent returns the number of bytes written to this connection.
func (c *connection) BytesSent() uint64 {
	return atomic.LoadUint64(&c.bytesSent)
}

// BytesReceived returns the number of bytes read from this connection.
func (c *connection) BytesReceived() uint64 {
	return atomic.LoadUint64(&c.bytesReceived)
}
