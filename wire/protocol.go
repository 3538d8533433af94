// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

// Magic is expected at the start of every message header.
var Magic = [4]byte{0xfa, 0x1a, 0xf9, 0xbf}

const (
	// ProtocolVersion advertised in our version messages.
	ProtocolVersion uint32 = 170013

	// ServiceNodeNetwork marks a peer able to serve the full chain.
	ServiceNodeNetwork uint64 = 1

	// HeaderLen is the size in bytes of a message header.
	HeaderLen uint64 = 24

	// MaxBodyLen is the maximum body size we're willing to accept for any
	// message. Enforced by the networking layer only for DoS protection.
	MaxBodyLen uint32 = 2 * 1024 * 1024

	// commandLen is the fixed width of the command field in the header.
	commandLen = 12

	// UserAgent is the default agent string sent during the handshake.
	UserAgent = "/mimic:0.1.0/"
)

// Wire commands of the supported message set.
const (
	CmdVersion = "version"
	CmdVerack  = "verack"
	CmdPing    = "ping"
	CmdPong    = "pong"
	CmdGetAddr = "getaddr"
	CmdAddr    = "addr"
)

// Commands lists every command this codec can decode.
func Commands() []string {
	return []string{CmdVersion, CmdVerack, CmdPing, CmdPong, CmdGetAddr, CmdAddr}
}
