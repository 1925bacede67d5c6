// Package protocol is the wire format between a table host and its clients:
// every message is a JSON object carrying a "command" field, framed by an
// 8-byte big-endian length prefix.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// HeaderSize is the length of the frame prefix.
const HeaderSize = 8

// DefaultMaxFrame bounds a single payload.
const DefaultMaxFrame = 1 << 20

var (
	// ErrDisconnected means the peer is gone: EOF, reset, closed socket or a
	// missed deadline.
	ErrDisconnected = errors.New("protocol: peer disconnected")
	// ErrFrameTooLarge means a frame header announced more than the limit.
	ErrFrameTooLarge = errors.New("protocol: frame too large")
	// ErrMalformed means the payload is not a valid message.
	ErrMalformed = errors.New("protocol: malformed message")
)

// WriteFrame writes payload with its length prefix in a single write.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(len(payload)))
	copy(buf[HeaderSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return transportError(err)
	}
	return nil
}

// ReadFrame reads one frame. Payloads larger than max are refused before the
// body is read; a max of zero or less means DefaultMaxFrame.
func ReadFrame(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxFrame
	}
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, transportError(err)
	}
	n := binary.BigEndian.Uint64(hdr[:])
	if n > uint64(max) {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, n, max)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, transportError(err)
	}
	return payload, nil
}

// transportError folds the many ways a socket can die into ErrDisconnected.
func transportError(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE):
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return err
}
