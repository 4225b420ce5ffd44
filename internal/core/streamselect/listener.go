package streamselect

import (
	"fmt"
	"io"
)

// ListenerSelect runs the listener side of the handshake over rw,
// accepting the first candidate offered by the dialer that appears in
// supported. Grounded on
// original_source/volans-stream-select/src/listener_select.rs's state
// machine (RecvMessage/SendMessage/Flush/Done).
func ListenerSelect(rw io.ReadWriteCloser, supported []string) (*Negotiated, error) {
	ld := NewLengthDelimited(rw)
	supportedSet := make(map[string]bool, len(supported))
	for _, s := range supported {
		supportedSet[s] = true
	}

	for {
		frame, err := ld.ReadFrame()
		if err != nil {
			return nil, err
		}
		msg, err := Decode(frame)
		if err != nil {
			return nil, err
		}
		if msg.NotAvailable {
			return nil, fmt.Errorf("%w: dialer sent na", ErrInvalidMessage)
		}
		if !supportedSet[msg.Protocol] {
			payload, err := Encode(Message{NotAvailable: true})
			if err != nil {
				return nil, err
			}
			if err := ld.WriteFrame(payload); err != nil {
				return nil, err
			}
			continue
		}
		payload, err := Encode(Message{Protocol: msg.Protocol})
		if err != nil {
			return nil, err
		}
		if err := ld.WriteFrame(payload); err != nil {
			return nil, err
		}
		return Completed(rw, msg.Protocol), nil
	}
}
