package streamselect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProtocol is returned when a protocol name is malformed
	// (must start with "/").
	ErrInvalidProtocol = errors.New("streamselect: invalid protocol name")
	// ErrInvalidMessage is returned when a received frame is neither a
	// protocol offer nor the "na" not-available marker.
	ErrInvalidMessage = errors.New("streamselect: invalid message")
	// ErrNegotiationFailed is returned when no candidate is accepted.
	ErrNegotiationFailed = errors.New("streamselect: negotiation failed, no common protocol")
)

const notAvailable = "na"

// Message is one multistream-select frame: either a protocol offer or the
// literal "na" not-available marker.
type Message struct {
	Protocol     string
	NotAvailable bool
}

// ValidateProtocol checks that name starts with "/".
func ValidateProtocol(name string) error {
	if !strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, name)
	}
	return nil
}

// Encode renders m as its wire payload.
func Encode(m Message) ([]byte, error) {
	if m.NotAvailable {
		return []byte(notAvailable), nil
	}
	if err := ValidateProtocol(m.Protocol); err != nil {
		return nil, err
	}
	return []byte(m.Protocol), nil
}

// Decode parses a wire payload into a Message.
func Decode(b []byte) (Message, error) {
	if string(b) == notAvailable {
		return Message{NotAvailable: true}, nil
	}
	s := string(b)
	if strings.HasPrefix(s, "/") {
		return Message{Protocol: s}, nil
	}
	return Message{}, fmt.Errorf("%w: %q", ErrInvalidMessage, s)
}
