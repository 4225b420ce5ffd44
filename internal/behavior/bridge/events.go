package bridge

import (
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/pkg/peer"
)

// ConnectResult answers a Connect call: either a ready-to-use stream
// tunneled through the relay to Destination, or the error the relay
// reported (or a local timeout/transport failure).
type ConnectResult struct {
	CorrelationID string
	Stream        muxing.Stream
	Err           error
}

// InboundBridged is surfaced on the destination side when a relay
// opens a RelayConnectProtocolID substream on an existing connection:
// some third peer, reached through Relay, now has a tunnel to us.
type InboundBridged struct {
	Relay  peer.ID
	Stream muxing.Stream
}
