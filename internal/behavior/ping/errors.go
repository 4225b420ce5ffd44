package ping

import "errors"

// ErrPayloadMismatch means the echoed payload did not match what was
// sent, so the round trip cannot be trusted even though it completed.
var ErrPayloadMismatch = errors.New("ping: echoed payload mismatch")

// ErrUnsupported means the remote peer never advertised ProtocolID, so
// this side stops requesting pings on that connection.
var ErrUnsupported = errors.New("ping: protocol not supported by peer")

// ErrTimeout means a ping round trip did not complete within the
// configured timeout.
var ErrTimeout = errors.New("ping: timed out")
