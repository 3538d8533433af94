// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
)

// writeCompactSize writes v using the minimal tier of the Bitcoin
// CompactSize encoding.
func writeCompactSize(w io.Writer, v uint64) error {
	switch {
	case v <= 0xfc:
		_, err := w.Write([]byte{byte(v)})
		return err
	case v <= 0xffff:
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint16(v))
	case v <= 0xffffffff:
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint32(v))
	default:
		if _, err := w.Write([]byte{0xff}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v)
	}
}

// readCompactSize reads one CompactSize value. A truncated stream is
// reported as a decode error.
func readCompactSize(r io.Reader) (uint64, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return 0, decodeErr("compact size", ErrBadCompactSize)
	}

	switch marker[0] {
	case 0xfd:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, decodeErr("compact size", ErrBadCompactSize)
		}
		return uint64(v), nil
	case 0xfe:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, decodeErr("compact size", ErrBadCompactSize)
		}
		return uint64(v), nil
	case 0xff:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, decodeErr("compact size", ErrBadCompactSize)
		}
		return v, nil
	default:
		return uint64(marker[0]), nil
	}
}

// compactSizeLen returns the encoded width of v in bytes.
func compactSizeLen(v uint64) int {
	switch {
	case v <= 0xfc:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
