// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
	"fmt"
)

// Causes of a decode failure.
var (
	ErrBadMagic        = errors.New("invalid magic bytes")
	ErrBadCompactSize  = errors.New("malformed compact size")
	ErrBodyLength      = errors.New("body length mismatch")
	ErrInvalidUTF8     = errors.New("string field is not valid utf-8")
	ErrChecksum        = errors.New("checksum mismatch")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMessageTooLarge = errors.New("message exceeds size limit")
)

// DecodeError reports a protocol-level failure while decoding a message.
// It is distinct from transport errors: the connection that produced it
// must be dropped, but the process and every other connection keep going.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(field string, err error) error {
	return &DecodeError{Field: field, Err: err}
}

// IsDecodeError reports whether err was raised by the codec rather than
// the transport.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
