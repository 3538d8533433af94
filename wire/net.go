// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// WriteMessage frames msg and writes it to w in a single Write call so
// two frames from different callers cannot interleave on a shared
// writer. Returns the number of bytes written.
func WriteMessage(w io.Writer, msg Message) (uint64, error) {
	body := msg.Bytes()
	if uint32(len(body)) > MaxBodyLen {
		return 0, fmt.Errorf("encode %s: %w", msg.Command(), ErrMessageTooLarge)
	}

	// The length and checksum are only knowable once the body is fully
	// serialized, so the whole frame is buffered before hitting the wire.
	header := newHeader(msg.Command(), body)

	buff := new(bytes.Buffer)
	buff.Grow(int(HeaderLen) + len(body))
	header.Write(buff)
	buff.Write(body)

	n, err := w.Write(buff.Bytes())
	return uint64(n), err
}

// ReadMessage reads one framed message from r. Protocol-level failures
// (bad magic, checksum mismatch, malformed body) come back as a
// *DecodeError; anything else is a transport error.
func ReadMessage(r io.Reader) (Message, uint64, error) {
	var header MessageHeader
	if err := header.Read(r); err != nil {
		return nil, 0, err
	}

	logrus.Debugf("read header: command=%q len=%d", header.CommandString(), header.Length)

	if header.Length > MaxBodyLen {
		return nil, HeaderLen, decodeErr("header", ErrMessageTooLarge)
	}

	body := make([]byte, header.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// The header promised more bytes than the stream holds.
			return nil, HeaderLen, decodeErr("body", ErrBodyLength)
		}
		return nil, HeaderLen, err
	}
	read := HeaderLen + uint64(len(body))

	if checksum(body) != header.Checksum {
		return nil, read, decodeErr(header.CommandString(), ErrChecksum)
	}

	msg, err := newMessage(header.CommandString())
	if err != nil {
		return nil, read, err
	}

	br := bytes.NewReader(body)
	if err := msg.Read(br); err != nil {
		if IsDecodeError(err) {
			return nil, read, err
		}
		return nil, read, decodeErr(header.CommandString(), err)
	}

	if br.Len() != 0 {
		return nil, read, decodeErr(header.CommandString(), ErrBodyLength)
	}

	return msg, read, nil
}
