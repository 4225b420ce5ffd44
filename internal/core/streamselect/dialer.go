package streamselect

import (
	"fmt"
	"io"
)

// DialerSelect runs the dialer side of the multistream-select handshake
// over rw, offering candidates in order. It returns the first candidate
// accepted by the listener, wrapped as a Negotiated stream. Grounded on
// original_source/volans-stream-select/src/dialer_select.rs's state
// machine (Initial/SendProtocol/FlushProtocol/AwaitProtocol/Done),
// including the single-candidate optimistic fast path.
func DialerSelect(rw io.ReadWriteCloser, candidates []string) (*Negotiated, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("streamselect: no candidates")
	}
	ld := NewLengthDelimited(rw)

	idx := 0
	for {
		candidate := candidates[idx]
		payload, err := Encode(Message{Protocol: candidate})
		if err != nil {
			return nil, err
		}
		if err := ld.WriteFrame(payload); err != nil {
			return nil, err
		}

		last := idx == len(candidates)-1
		if last {
			// Optimistic fast path: defer reading confirmation until the
			// caller actually uses the stream.
			candidateCopy := candidate
			return Expecting(rw, candidateCopy, func() error {
				return awaitConfirmation(ld, candidateCopy)
			}), nil
		}

		frame, err := ld.ReadFrame()
		if err != nil {
			return nil, err
		}
		msg, err := Decode(frame)
		if err != nil {
			return nil, err
		}
		if msg.NotAvailable {
			idx++
			continue
		}
		if msg.Protocol == candidate {
			return Completed(rw, candidate), nil
		}
		return nil, fmt.Errorf("%w: unexpected reply %q for %q", ErrInvalidMessage, msg.Protocol, candidate)
	}
}

func awaitConfirmation(ld *LengthDelimited, candidate string) error {
	frame, err := ld.ReadFrame()
	if err != nil {
		return err
	}
	msg, err := Decode(frame)
	if err != nil {
		return err
	}
	if msg.NotAvailable {
		return ErrNegotiationFailed
	}
	if msg.Protocol != candidate {
		return fmt.Errorf("%w: unexpected reply %q for %q", ErrInvalidMessage, msg.Protocol, candidate)
	}
	return nil
}
