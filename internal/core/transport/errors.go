package transport

import "errors"

var (
	// ErrNoTransport means no registered transport could dial or listen
	// on an address (every branch of a Choice chain reported NotSupported).
	ErrNoTransport = errors.New("transport: no suitable transport for address")

	// ErrInvalidAddress means a multiaddr failed to parse.
	ErrInvalidAddress = errors.New("transport: invalid multiaddr")

	// ErrPeerIDMismatch means the peer id presented during the
	// authenticate stage did not match the one the dialer expected.
	ErrPeerIDMismatch = errors.New("transport: peer id mismatch")
)
