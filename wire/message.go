// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
	"unicode/utf8"
)

// Message is one protocol message. Exactly one concrete type exists per
// wire command; the command string is the discriminant used on decode.
type Message interface {
	// Command returns the wire command name, at most 12 ASCII bytes.
	Command() string
	// Bytes serializes the message body.
	Bytes() []byte
	// Read decodes the message body from r.
	Read(r io.Reader) error
}

// newMessage returns the empty payload for command, ready to be filled by
// Read.
func newMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return new(Version), nil
	case CmdVerack:
		return new(Verack), nil
	case CmdPing:
		return new(Ping), nil
	case CmdPong:
		return new(Pong), nil
	case CmdGetAddr:
		return new(GetAddr), nil
	case CmdAddr:
		return new(Addr), nil
	default:
		return nil, decodeErr("command "+command, ErrUnknownCommand)
	}
}

// Version is the first part of a handshake: the sender advertises its
// protocol version and characteristics.
type Version struct {
	Version     uint32
	Services    uint64
	Timestamp   time.Time
	AddrRecv    NetAddr
	AddrFrom    NetAddr
	Nonce       uint64
	UserAgent   string
	StartHeight uint32
	// Relay is always sent as false; the harness never asks for inv
	// relaying.
	Relay bool
}

// NewVersion builds a version message with our defaults.
func NewVersion(addrRecv, addrFrom NetAddr, nonce uint64, userAgent string, startHeight uint32) *Version {
	return &Version{
		Version:     ProtocolVersion,
		Services:    ServiceNodeNetwork,
		Timestamp:   time.Now().UTC(),
		AddrRecv:    addrRecv,
		AddrFrom:    addrFrom,
		Nonce:       nonce,
		UserAgent:   userAgent,
		StartHeight: startHeight,
	}
}

func (m *Version) Command() string { return CmdVersion }

func (m *Version) Bytes() []byte {
	// Writes into a bytes.Buffer cannot fail.
	buff := new(bytes.Buffer)

	binary.Write(buff, binary.LittleEndian, m.Version)
	binary.Write(buff, binary.LittleEndian, m.Services)
	binary.Write(buff, binary.LittleEndian, m.Timestamp.Unix())

	writeNetAddr(buff, m.AddrRecv)
	writeNetAddr(buff, m.AddrFrom)

	binary.Write(buff, binary.LittleEndian, m.Nonce)
	writeString(buff, m.UserAgent)
	binary.Write(buff, binary.LittleEndian, m.StartHeight)

	relay := byte(0)
	if m.Relay {
		relay = 1
	}
	buff.WriteByte(relay)

	return buff.Bytes()
}

func (m *Version) Read(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &m.Version); err != nil {
		return err
	}

	if err := binary.Read(r, binary.LittleEndian, &m.Services); err != nil {
		return err
	}

	var ts int64
	if err := binary.Read(r, binary.LittleEndian, &ts); err != nil {
		return err
	}
	m.Timestamp = time.Unix(ts, 0).UTC()

	var err error
	if m.AddrRecv, err = readNetAddr(r); err != nil {
		return err
	}
	if m.AddrFrom, err = readNetAddr(r); err != nil {
		return err
	}

	if err := binary.Read(r, binary.LittleEndian, &m.Nonce); err != nil {
		return err
	}

	if m.UserAgent, err = readString(r); err != nil {
		return err
	}

	if err := binary.Read(r, binary.LittleEndian, &m.StartHeight); err != nil {
		return err
	}

	var relay [1]byte
	if _, err := io.ReadFull(r, relay[:]); err != nil {
		return err
	}
	m.Relay = relay[0] != 0

	return nil
}

// Verack acknowledges a version message. Empty body.
type Verack struct{}

func (*Verack) Command() string        { return CmdVerack }
func (*Verack) Bytes() []byte          { return nil }
func (*Verack) Read(r io.Reader) error { return nil }

// Ping probes that the peer is still responsive.
type Ping struct {
	Nonce uint64
}

func (m *Ping) Command() string { return CmdPing }

func (m *Ping) Bytes() []byte {
	buff := new(bytes.Buffer)
	binary.Write(buff, binary.LittleEndian, m.Nonce)
	return buff.Bytes()
}

func (m *Ping) Read(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &m.Nonce)
}

// Pong answers a ping, echoing its nonce.
type Pong struct {
	Nonce uint64
}

func (m *Pong) Command() string { return CmdPong }

func (m *Pong) Bytes() []byte {
	buff := new(bytes.Buffer)
	binary.Write(buff, binary.LittleEndian, m.Nonce)
	return buff.Bytes()
}

func (m *Pong) Read(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &m.Nonce)
}

// GetAddr asks the peer for addresses of other peers. Empty body.
type GetAddr struct{}

func (*GetAddr) Command() string        { return CmdGetAddr }
func (*GetAddr) Bytes() []byte          { return nil }
func (*GetAddr) Read(r io.Reader) error { return nil }

// Addr advertises known peers, in response to getaddr.
type Addr struct {
	Addrs []TimestampedAddr
}

// timestampedAddrLen is the encoded size of one addr entry.
const timestampedAddrLen = 4 + 26

func (m *Addr) Command() string { return CmdAddr }

func (m *Addr) Bytes() []byte {
	buff := new(bytes.Buffer)
	writeCompactSize(buff, uint64(len(m.Addrs)))

	for _, ta := range m.Addrs {
		binary.Write(buff, binary.LittleEndian, ta.Time)
		writeNetAddr(buff, ta.Addr)
	}

	return buff.Bytes()
}

func (m *Addr) Read(r io.Reader) error {
	count, err := readCompactSize(r)
	if err != nil {
		return err
	}

	if count > uint64(MaxBodyLen)/timestampedAddrLen {
		return decodeErr("addr count", ErrMessageTooLarge)
	}

	m.Addrs = make([]TimestampedAddr, 0, count)
	for i := uint64(0); i < count; i++ {
		var ta TimestampedAddr
		if err := binary.Read(r, binary.LittleEndian, &ta.Time); err != nil {
			return err
		}
		if ta.Addr, err = readNetAddr(r); err != nil {
			return err
		}
		m.Addrs = append(m.Addrs, ta)
	}

	return nil
}

// writeString writes a CompactSize-prefixed UTF-8 string.
func writeString(buff *bytes.Buffer, s string) {
	writeCompactSize(buff, uint64(len(s)))
	buff.WriteString(s)
}

// readString is the mirror of writeString; bytes that are not valid
// UTF-8 are a decode error, not a reason to abort.
func readString(r io.Reader) (string, error) {
	n, err := readCompactSize(r)
	if err != nil {
		return "", err
	}

	if n > uint64(MaxBodyLen) {
		return "", decodeErr("string", ErrMessageTooLarge)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	if !utf8.Valid(buf) {
		return "", decodeErr("string", ErrInvalidUTF8)
	}

	return string(buf), nil
}
