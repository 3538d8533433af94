// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MessageHeader precedes every message on the wire: magic, the NUL-padded
// command, the body length and the first four bytes of the double SHA-256
// of the body.
type MessageHeader struct {
	Magic    [4]byte
	Command  [12]byte
	Length   uint32
	Checksum [4]byte
}

// newHeader builds the header for body under the given command.
func newHeader(command string, body []byte) MessageHeader {
	h := MessageHeader{
		Magic:    Magic,
		Length:   uint32(len(body)),
		Checksum: checksum(body),
	}
	copy(h.Command[:], command)
	return h
}

// checksum is the first four bytes of sha256d over the body.
func checksum(body []byte) [4]byte {
	var sum [4]byte
	copy(sum[:], chainhash.DoubleHashB(body))
	return sum
}

func (h *MessageHeader) Write(w io.Writer) error {
	if _, err := w.Write(h.Magic[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.Command[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Length); err != nil {
		return err
	}

	_, err := w.Write(h.Checksum[:])
	return err
}

// Read fills h from r. A stream that ends cleanly before the first header
// byte surfaces io.EOF so read loops can tell an orderly disconnect from
// a corrupt frame.
func (h *MessageHeader) Read(r io.Reader) error {
	var raw [HeaderLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return err
	}

	copy(h.Magic[:], raw[:4])
	copy(h.Command[:], raw[4:16])
	h.Length = binary.LittleEndian.Uint32(raw[16:20])
	copy(h.Checksum[:], raw[20:24])

	if h.Magic != Magic {
		return decodeErr("header", ErrBadMagic)
	}

	return nil
}

// CommandString returns the command with the NUL padding stripped.
func (h *MessageHeader) CommandString() string {
	return string(bytes.TrimRight(h.Command[:], "\x00"))
}
