// Package handler implements the per-connection ConnectionHandler
// contract: the piece of a NetworkBehavior that runs once per open
// connection, negotiating substreams and translating protocol traffic
// into behavior-level events. Grounded on
// original_source/volans-swarm/src/handler.rs.
//
// Rust's ConnectionHandler::poll is translated into Poll, one
// non-blocking pass through a select over whatever channels/state the
// handler is waiting on; it is called repeatedly by the owning
// connection's event loop rather than driven by a Future executor.
package handler

import (
	"context"
	"time"

	"github.com/cariers/volans/internal/core/muxing"
)

// DefaultSubstreamTimeout is applied to a SubstreamProtocol that leaves
// Timeout unset, matching the original's 5-second default.
const DefaultSubstreamTimeout = 5 * time.Second

// SubstreamProtocol names the protocols a handler will accept (inbound)
// or request (outbound), and a deadline for multistream-select to
// complete.
type SubstreamProtocol struct {
	Protocols []string
	Timeout   time.Duration
	Info      any
}

func (p SubstreamProtocol) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultSubstreamTimeout
	}
	return p.Timeout
}

// StreamUpgradeError reports why a substream negotiation failed:
// protocol negotiation proper, or the Timeout deadline.
type StreamUpgradeError struct {
	Timeout bool
	Err     error
}

func (e *StreamUpgradeError) Error() string {
	if e.Timeout {
		return "handler: substream upgrade timed out"
	}
	return "handler: substream upgrade failed: " + e.Err.Error()
}

func (e *StreamUpgradeError) Unwrap() error { return e.Err }

// ConnectionEvent is delivered by the owning connection to tell a
// handler about substreams it negotiated and failures along the way.
type ConnectionEvent interface{ isConnectionEvent() }

type FullyNegotiatedInbound struct {
	Protocol string
	Stream   muxing.Stream
}

type FullyNegotiatedOutbound struct {
	Protocol string
	Stream   muxing.Stream
	Info     any
}

type DialUpgradeError struct {
	Info  any
	Error *StreamUpgradeError
}

type ListenUpgradeError struct {
	Error *StreamUpgradeError
}

func (FullyNegotiatedInbound) isConnectionEvent()  {}
func (FullyNegotiatedOutbound) isConnectionEvent() {}
func (DialUpgradeError) isConnectionEvent()        {}
func (ListenUpgradeError) isConnectionEvent()      {}

// HandlerEvent is what Poll returns to the owning connection.
type HandlerEvent interface{ isHandlerEvent() }

// OutboundSubstreamRequest asks the connection to open a new substream
// negotiating one of Protocol.Protocols.
type OutboundSubstreamRequest struct {
	Protocol SubstreamProtocol
}

// Custom carries a handler-defined event up to the NetworkBehavior.
type Custom struct {
	Event any
}

// Close tells the connection to shut down, optionally due to Err.
type Close struct {
	Err error
}

func (OutboundSubstreamRequest) isHandlerEvent() {}
func (Custom) isHandlerEvent()                   {}
func (Close) isHandlerEvent()                    {}

// ConnectionHandler is the per-connection half of a NetworkBehavior.
// Poll is called by the owning connection's event loop in a tight,
// non-blocking cycle (one pass through a select with a default branch);
// handlers must not block inside Poll.
type ConnectionHandler interface {
	// ListenProtocol returns the protocols this handler will accept on
	// an inbound substream request, or a zero-length Protocols slice if
	// it accepts none.
	ListenProtocol() SubstreamProtocol

	// OnConnectionEvent delivers a negotiation outcome.
	OnConnectionEvent(ConnectionEvent)

	// OnBehaviorAction delivers an action the owning NetworkBehavior
	// addressed to this handler specifically.
	OnBehaviorAction(action any)

	// Poll performs one non-blocking pass, returning an event and true,
	// or false if nothing is ready.
	Poll(ctx context.Context) (HandlerEvent, bool)

	// KeepAlive reports whether this handler alone wants its connection
	// kept open with no active streams and no pending work.
	KeepAlive() bool
}
