// Package streamselect implements length-delimited framing and the
// multistream-select protocol negotiation handshake: the dialer and
// listener state machines that agree on one application protocol name
// over a raw byte stream, for both the connection upgrade and every
// substream. Grounded on original_source/volans-stream-select
// (length_delimited.rs, protocol.rs, dialer_select.rs, listener_select.rs),
// translated from poll/Future state machines into blocking calls guarded
// by context deadlines, since each negotiation runs on its own goroutine.
package streamselect

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxLengthSize is the width of the length header in bytes.
const MaxLengthSize = 4

// MaxFrameSize is the largest payload a single frame may carry.
const MaxFrameSize = math.MaxUint32 >> 4

// ErrFrameTooLarge is returned when a write would exceed MaxFrameSize.
var ErrFrameTooLarge = errors.New("streamselect: frame exceeds maximum size")

// LengthDelimited frames messages over rw: 4 big-endian length bytes
// followed by the payload. A read that observes a clean stream end only
// at a frame boundary (zero bytes read with nothing buffered) reports
// io.EOF; any other zero-byte read mid-frame is io.ErrUnexpectedEOF.
type LengthDelimited struct {
	rw io.ReadWriter
}

// NewLengthDelimited wraps rw.
func NewLengthDelimited(rw io.ReadWriter) *LengthDelimited {
	return &LengthDelimited{rw: rw}
}

// ReadFrame reads one length-prefixed payload. A zero-length frame yields
// an empty, non-nil byte slice.
func (l *LengthDelimited) ReadFrame() ([]byte, error) {
	var lenBuf [MaxLengthSize]byte
	if _, err := io.ReadFull(l.rw, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, err
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("streamselect: frame length %d exceeds max %d", n, MaxFrameSize)
	}
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(l.rw, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed payload.
func (l *LengthDelimited) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var lenBuf [MaxLengthSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := l.rw.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := l.rw.Write(payload)
	return err
}
