package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func testNetAddr(ip string, port uint16) NetAddr {
	return NetAddr{
		Services: ServiceNodeNetwork,
		IP:       net.ParseIP(ip),
		Port:     port,
	}
}

func testVersion() *Version {
	return &Version{
		Version:     ProtocolVersion,
		Services:    ServiceNodeNetwork,
		Timestamp:   time.Unix(1650000000, 0).UTC(),
		AddrRecv:    testNetAddr("203.0.113.7", 8233),
		AddrFrom:    testNetAddr("2001:db8::68", 18233),
		Nonce:       0xdeadbeefcafe1234,
		UserAgent:   UserAgent,
		StartHeight: 1234,
		Relay:       false,
	}
}

// encodeFrame frames msg into a fresh buffer.
func encodeFrame(t *testing.T, msg Message) []byte {
	t.Helper()

	buff := new(bytes.Buffer)
	written, err := WriteMessage(buff, msg)
	if err != nil {
		t.Fatalf("WriteMessage(%s) failed: %v", msg.Command(), err)
	}

	if written != uint64(buff.Len()) {
		t.Fatalf("WriteMessage reported %d bytes, wrote %d", written, buff.Len())
	}

	return buff.Bytes()
}

// TestHeaderLayout checks the framed bytes field by field.
func TestHeaderLayout(t *testing.T) {
	ping := &Ping{Nonce: 0x1122334455667788}
	frame := encodeFrame(t, ping)

	if len(frame) != int(HeaderLen)+8 {
		t.Fatalf("frame length = %d, want %d", len(frame), int(HeaderLen)+8)
	}

	if !bytes.Equal(frame[:4], Magic[:]) {
		t.Errorf("magic = %x, want %x", frame[:4], Magic[:])
	}

	wantCommand := append([]byte(CmdPing), make([]byte, commandLen-len(CmdPing))...)
	if !bytes.Equal(frame[4:16], wantCommand) {
		t.Errorf("command = %q, want %q", frame[4:16], wantCommand)
	}

	if got := binary.LittleEndian.Uint32(frame[16:20]); got != 8 {
		t.Errorf("body length = %d, want 8", got)
	}

	body := frame[24:]
	wantChecksum := chainhash.DoubleHashB(body)[:4]
	if !bytes.Equal(frame[20:24], wantChecksum) {
		t.Errorf("checksum = %x, want %x", frame[20:24], wantChecksum)
	}

	// nonce is little-endian in the body
	if got := binary.LittleEndian.Uint64(body); got != ping.Nonce {
		t.Errorf("nonce = %#x, want %#x", got, ping.Nonce)
	}
}

// TestMessageRoundTrip decodes each supported variant back from its own
// encoding.
func TestMessageRoundTrip(t *testing.T) {
	messages := []Message{
		testVersion(),
		&Verack{},
		&Ping{Nonce: 42},
		&Pong{Nonce: 42},
		&GetAddr{},
		&Addr{Addrs: []TimestampedAddr{
			{Time: 1650000000, Addr: testNetAddr("203.0.113.7", 8233)},
			{Time: 165000060, Addr: testNetAddr("2001:db8::68", 18233)},
		}},
	}

	for _, msg := range messages {
		frame := encodeFrame(t, msg)

		decoded, read, err := ReadMessage(bytes.NewReader(frame))
		if err != nil {
			t.Fatalf("ReadMessage(%s) failed: %v", msg.Command(), err)
		}

		if read != uint64(len(frame)) {
			t.Errorf("%s: consumed %d of %d bytes", msg.Command(), read, len(frame))
		}

		if decoded.Command() != msg.Command() {
			t.Fatalf("command changed: got %s, want %s", decoded.Command(), msg.Command())
		}

		if !bytes.Equal(decoded.Bytes(), msg.Bytes()) {
			t.Errorf("%s: re-encoded body differs from original", msg.Command())
		}
	}
}

// TestVersionFields decodes a version message and checks every field.
func TestVersionFields(t *testing.T) {
	want := testVersion()
	frame := encodeFrame(t, want)

	decoded, _, err := ReadMessage(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	got, ok := decoded.(*Version)
	if !ok {
		t.Fatalf("decoded type %T, want *Version", decoded)
	}

	if got.Version != want.Version {
		t.Errorf("Version = %d, want %d", got.Version, want.Version)
	}
	if got.Services != want.Services {
		t.Errorf("Services = %d, want %d", got.Services, want.Services)
	}
	if got.Timestamp.Unix() != want.Timestamp.Unix() {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if !got.AddrRecv.Equal(want.AddrRecv) {
		t.Errorf("AddrRecv = %v, want %v", got.AddrRecv, want.AddrRecv)
	}
	if !got.AddrFrom.Equal(want.AddrFrom) {
		t.Errorf("AddrFrom = %v, want %v", got.AddrFrom, want.AddrFrom)
	}
	if got.Nonce != want.Nonce {
		t.Errorf("Nonce = %#x, want %#x", got.Nonce, want.Nonce)
	}
	if got.UserAgent != want.UserAgent {
		t.Errorf("UserAgent = %q, want %q", got.UserAgent, want.UserAgent)
	}
	if got.StartHeight != want.StartHeight {
		t.Errorf("StartHeight = %d, want %d", got.StartHeight, want.StartHeight)
	}
	if got.Relay != want.Relay {
		t.Errorf("Relay = %v, want %v", got.Relay, want.Relay)
	}
}

// TestChecksumDetectsCorruption flips every body byte in turn and expects
// a checksum error each time; the untouched frame must keep decoding.
func TestChecksumDetectsCorruption(t *testing.T) {
	frame := encodeFrame(t, testVersion())

	if _, _, err := ReadMessage(bytes.NewReader(frame)); err != nil {
		t.Fatalf("unmodified frame failed to decode: %v", err)
	}

	for i := int(HeaderLen); i < len(frame); i++ {
		corrupted := make([]byte, len(frame))
		copy(corrupted, frame)
		corrupted[i] ^= 0xff

		_, _, err := ReadMessage(bytes.NewReader(corrupted))
		if !errors.Is(err, ErrChecksum) {
			t.Fatalf("flipped body byte %d: got %v, want ErrChecksum", i, err)
		}
		if !IsDecodeError(err) {
			t.Fatalf("flipped body byte %d: error is not a DecodeError", i)
		}
	}
}

// TestBadMagic ensures a frame for some other network is rejected up
// front.
func TestBadMagic(t *testing.T) {
	frame := encodeFrame(t, &Ping{Nonce: 7})
	frame[0] ^= 0xff

	_, _, err := ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("got %v, want ErrBadMagic", err)
	}
}

// TestTruncatedBody ensures a header promising more bytes than the stream
// holds is a decode error, not a hang or panic.
func TestTruncatedBody(t *testing.T) {
	frame := encodeFrame(t, testVersion())

	_, _, err := ReadMessage(bytes.NewReader(frame[:len(frame)-3]))
	if !errors.Is(err, ErrBodyLength) {
		t.Errorf("got %v, want ErrBodyLength", err)
	}
}

// TestTrailingBytes ensures a body longer than its payload is rejected.
func TestTrailingBytes(t *testing.T) {
	body := (&Ping{Nonce: 7}).Bytes()
	body = append(body, 0xaa)

	buff := new(bytes.Buffer)
	header := newHeader(CmdPing, body)
	header.Write(buff)
	buff.Write(body)

	_, _, err := ReadMessage(buff)
	if !errors.Is(err, ErrBodyLength) {
		t.Errorf("got %v, want ErrBodyLength", err)
	}
}

// TestUnknownCommand ensures a well-formed frame for a command outside
// the supported set is a decode error.
func TestUnknownCommand(t *testing.T) {
	body := []byte{0x01}

	buff := new(bytes.Buffer)
	header := newHeader("bogus", body)
	header.Write(buff)
	buff.Write(body)

	_, _, err := ReadMessage(buff)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("got %v, want ErrUnknownCommand", err)
	}
}

// TestInvalidUTF8UserAgent ensures bad string bytes are reported as a
// decode error instead of aborting.
func TestInvalidUTF8UserAgent(t *testing.T) {
	version := testVersion()
	version.UserAgent = string([]byte{0xff, 0xfe, 0xfd})

	frame := encodeFrame(t, version)

	_, _, err := ReadMessage(bytes.NewReader(frame))
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("got %v, want ErrInvalidUTF8", err)
	}
}

// TestOversizedBody ensures the length cap is enforced before any
// allocation happens.
func TestOversizedBody(t *testing.T) {
	var header MessageHeader
	header.Magic = Magic
	copy(header.Command[:], CmdPing)
	header.Length = MaxBodyLen + 1

	buff := new(bytes.Buffer)
	header.Write(buff)

	_, _, err := ReadMessage(buff)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("got %v, want ErrMessageTooLarge", err)
	}
}
