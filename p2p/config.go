// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package p2p

import (
	"time"

	"github.com/probelab/mimic/metrics"
	"github.com/probelab/mimic/wire"
)

// HandshakeMode selects how much of the version/verack exchange a
// synthetic node performs when a connection is established.
type HandshakeMode int

const (
	// HandshakeNone treats the connection as ready right after the TCP
	// connect succeeds.
	HandshakeNone HandshakeMode = iota
	// HandshakeFull performs the complete version/verack exchange.
	HandshakeFull
)

// AutoReplyMode selects whether inbound messages with a canonical
// response are answered by the engine itself.
type AutoReplyMode int

const (
	// AutoReplyNone leaves every reply to the caller.
	AutoReplyNone AutoReplyMode = iota
	// AutoReplyAll answers ping, version and getaddr automatically.
	AutoReplyAll
)

// Config is the complete, immutable configuration of a synthetic node.
// It is built once before any connection is made; there is no partial
// builder state.
type Config struct {
	Handshake HandshakeMode
	AutoReply AutoReplyMode

	// MaxPeers caps the number of live connections, dialed and accepted
	// combined.
	MaxPeers int

	// ConnectTimeout bounds the TCP dial; IOTimeout bounds every
	// individual handshake step and outbound write.
	ConnectTimeout time.Duration
	IOTimeout      time.Duration

	// Fields advertised in our version message.
	UserAgent   string
	StartHeight uint32

	// Recorder receives the node's counters. Nil falls back to the
	// process-wide default, which may itself be absent; metric writes are
	// then dropped.
	Recorder *metrics.Recorder
}

// DefaultConfig returns the configuration used by most scenarios: full
// handshake, auto-reply on, generous peer cap.
func DefaultConfig() Config {
	return Config{
		Handshake:      HandshakeFull,
		AutoReply:      AutoReplyAll,
		MaxPeers:       1024,
		ConnectTimeout: 5 * time.Second,
		IOTimeout:      5 * time.Second,
		UserAgent:      wire.UserAgent,
	}
}
