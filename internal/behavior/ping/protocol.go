// Package ping implements the ping protocol: a NetworkBehavior/
// ConnectionHandler pair that periodically round-trips a random payload
// over a dedicated substream and reports the RTT, closing the
// connection after a run of consecutive failures. Grounded on
// original_source/protocols/volans-ping's protocol.rs, outbound.rs and
// inbound.rs, collapsed into one handler since this tree's
// handler.ConnectionHandler already unifies the inbound/outbound
// negotiation halves the original splits across two files.
package ping

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// ProtocolID is the multistream-select name this behavior negotiates.
const ProtocolID = "/v1/ping"

// pingSize is the payload size in bytes, matching the original's
// PING_SIZE.
const pingSize = 32

// sendPing writes a random payload and expects it echoed back exactly,
// returning the round-trip time.
func sendPing(stream io.ReadWriter) (time.Duration, error) {
	payload := make([]byte, pingSize)
	if _, err := rand.Read(payload); err != nil {
		return 0, fmt.Errorf("ping: generating payload: %w", err)
	}
	if _, err := stream.Write(payload); err != nil {
		return 0, fmt.Errorf("ping: writing payload: %w", err)
	}
	started := time.Now()
	echo := make([]byte, pingSize)
	if _, err := io.ReadFull(stream, echo); err != nil {
		return 0, fmt.Errorf("ping: reading echo: %w", err)
	}
	rtt := time.Since(started)
	for i := range payload {
		if payload[i] != echo[i] {
			return 0, ErrPayloadMismatch
		}
	}
	return rtt, nil
}

// recvPing echoes back one ping payload. The caller loops this as long
// as the stream stays open.
func recvPing(stream io.ReadWriter) error {
	payload := make([]byte, pingSize)
	if _, err := io.ReadFull(stream, payload); err != nil {
		return err
	}
	_, err := stream.Write(payload)
	return err
}
