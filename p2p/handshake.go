// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package p2p

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/probelab/mimic/wire"
)

// versionFor builds our version message for conn, recording the nonce so
// a loop back to ourselves can be recognized.
func (sn *SyntheticNode) versionFor(conn net.Conn) *wire.Version {
	recv := wire.NetAddrFromTCP(conn.RemoteAddr().(*net.TCPAddr), wire.ServiceNodeNetwork)
	from := wire.NetAddrFromTCP(conn.LocalAddr().(*net.TCPAddr), wire.ServiceNodeNetwork)

	return wire.NewVersion(recv, from, sn.nonces.next(), sn.cfg.UserAgent, sn.cfg.StartHeight)
}

// initiateHandshake runs the dialing side of the exchange: send our
// version, await the peer's version, send verack, await the peer's
// verack. Every step is bounded by IOTimeout.
func (sn *SyntheticNode) initiateHandshake(conn net.Conn) error {
	defer conn.SetDeadline(time.Time{})

	if err := sn.handshakeSend(conn, sn.versionFor(conn)); err != nil {
		return handshakeErr("send version", err)
	}

	peerVersion, err := sn.handshakeRecvVersion(conn)
	if err != nil {
		return err
	}
	logrus.Debugf("peer version: %d agent %q", peerVersion.Version, peerVersion.UserAgent)

	if err := sn.handshakeSend(conn, &wire.Verack{}); err != nil {
		return handshakeErr("send verack", err)
	}

	return sn.handshakeRecvVerack(conn)
}

// respondHandshake runs the accepting side: await the peer's version,
// send ours, await verack, send verack. The mirror of initiateHandshake,
// so neither side ever needs to read and write concurrently.
func (sn *SyntheticNode) respondHandshake(conn net.Conn) error {
	defer conn.SetDeadline(time.Time{})

	peerVersion, err := sn.handshakeRecvVersion(conn)
	if err != nil {
		return err
	}
	logrus.Debugf("peer version: %d agent %q", peerVersion.Version, peerVersion.UserAgent)

	if err := sn.handshakeSend(conn, sn.versionFor(conn)); err != nil {
		return handshakeErr("send version", err)
	}

	if err := sn.handshakeRecvVerack(conn); err != nil {
		return err
	}

	if err := sn.handshakeSend(conn, &wire.Verack{}); err != nil {
		return handshakeErr("send verack", err)
	}

	return nil
}

func (sn *SyntheticNode) handshakeSend(conn net.Conn, msg wire.Message) error {
	if sn.cfg.IOTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(sn.cfg.IOTimeout))
	}

	_, err := wire.WriteMessage(conn, msg)
	return err
}

func (sn *SyntheticNode) handshakeRecv(conn net.Conn, step string) (wire.Message, error) {
	if sn.cfg.IOTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(sn.cfg.IOTimeout))
	}

	msg, _, err := wire.ReadMessage(conn)
	if err != nil {
		return nil, handshakeErr(step, err)
	}

	return msg, nil
}

func (sn *SyntheticNode) handshakeRecvVersion(conn net.Conn) (*wire.Version, error) {
	msg, err := sn.handshakeRecv(conn, "await version")
	if err != nil {
		return nil, err
	}

	version, ok := msg.(*wire.Version)
	if !ok {
		return nil, fmt.Errorf("await version: unexpected %s message", msg.Command())
	}

	if sn.nonces.contains(version.Nonce) {
		return nil, ErrSelfConnection
	}

	return version, nil
}

func (sn *SyntheticNode) handshakeRecvVerack(conn net.Conn) error {
	msg, err := sn.handshakeRecv(conn, "await verack")
	if err != nil {
		return err
	}

	if _, ok := msg.(*wire.Verack); !ok {
		return fmt.Errorf("await verack: unexpected %s message", msg.Command())
	}

	return nil
}

// handshakeErr reclassifies an I/O deadline hit during a handshake step
// as a handshake timeout, distinct from generic transport failures.
func handshakeErr(step string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", step, ErrHandshakeTimeout)
	}

	return fmt.Errorf("%s: %w", step, err)
}
