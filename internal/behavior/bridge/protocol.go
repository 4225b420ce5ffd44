// Package bridge implements the relay/circuit behavior: a node can ask
// an already-connected peer (the relay) to splice a substream through
// to a third peer (the destination) that the relay itself is connected
// to, letting two peers exchange bytes without a direct path between
// them. Grounded on the relay-routing primitive spec.md §8 scenario 5
// describes (BridgeConnect/BridgeStatus handshake, source/destination
// stream splicing) and on the teacher's internal/core/relay package
// shape (deleted as unwired; this package takes over its concern).
package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// BridgeProtocolID is negotiated by the peer asking a relay to bridge a
// connection to Destination.
const BridgeProtocolID = "/v1/bridge"

// RelayConnectProtocolID is negotiated by the relay, on its existing
// connection to Destination, to open the other half of the splice.
// No handshake travels over it: successful negotiation alone tells
// Destination it is being bridged to some third peer through the
// relay it is already connected to.
const RelayConnectProtocolID = "/v1/bridge-relay-connect"

// BridgeConnect is sent by the asking peer immediately after the
// BridgeProtocolID substream opens.
type BridgeConnect struct {
	CorrelationID string `json:"correlationId"`
	Destination   []byte `json:"destination"`
}

// BridgeStatus is the relay's reply: whether it could reach
// Destination and, if not, why.
type BridgeStatus struct {
	CorrelationID string `json:"correlationId"`
	OK            bool   `json:"ok"`
	Err           string `json:"err,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("bridge: encoding message: %w", err)
	}
	return nil
}

// readBridgeConnect reads exactly one newline-terminated message from r
// (writeJSON's encoder ends each message with '\n'), so any bytes the
// peer sent after it stay buffered in r.
func readBridgeConnect(r *bufio.Reader) (BridgeConnect, error) {
	var m BridgeConnect
	line, err := r.ReadBytes('\n')
	if err == nil {
		err = json.Unmarshal(line, &m)
	}
	if err != nil {
		return BridgeConnect{}, fmt.Errorf("bridge: decoding BridgeConnect: %w", err)
	}
	return m, nil
}

func readBridgeStatus(r *bufio.Reader) (BridgeStatus, error) {
	var m BridgeStatus
	line, err := r.ReadBytes('\n')
	if err == nil {
		err = json.Unmarshal(line, &m)
	}
	if err != nil {
		return BridgeStatus{}, fmt.Errorf("bridge: decoding BridgeStatus: %w", err)
	}
	return m, nil
}
