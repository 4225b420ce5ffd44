// Package behavior implements the NetworkBehavior contract: the
// swarm-wide half of a protocol implementation, paired with a
// handler.ConnectionHandler running per connection. Grounded on
// original_source/volans-swarm/src/behavior.rs and src/lib.rs.
package behavior

import (
	"context"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// NotifyHandler selects which of a peer's connections (if several are
// open concurrently) should receive a HandlerAction.
type NotifyHandler int

const (
	// NotifyOne delivers to exactly one connection, chosen by the swarm.
	NotifyOne NotifyHandler = iota
	// NotifyAny delivers to the first connection whose handler is ready
	// to accept an action without blocking.
	NotifyAny
	// NotifyAll delivers to every connection the peer currently has open.
	NotifyAll
)

// BehaviorEventKind discriminates a BehaviorEvent's payload.
type BehaviorEventKind int

const (
	EventBehavior BehaviorEventKind = iota
	EventHandlerAction
	EventCloseConnection
)

// BehaviorEvent is what NetworkBehavior.Poll returns: either a
// behavior-defined event surfaced to the swarm's caller, an action
// addressed to one or more connection handlers, or a request to close a
// connection.
type BehaviorEvent struct {
	Kind BehaviorEventKind

	// EventBehavior
	Event any

	// EventHandlerAction
	Peer   peer.ID
	Notify NotifyHandler
	Action any

	// EventCloseConnection
	ConnectionCloseErr error
}

// ConnectionKind distinguishes the direction a connection was
// established in, mirrored from the connection layer so behaviors don't
// need to import it directly.
type ConnectionKind int

const (
	Incoming ConnectionKind = iota
	Outgoing
)

// NetworkBehavior is the swarm-wide half of a protocol implementation.
type NetworkBehavior interface {
	// NewHandler returns the per-connection handler for a newly
	// established connection to peer, in direction kind, over addr.
	NewHandler(peer peer.ID, kind ConnectionKind, addr ma.Multiaddr) (handler.ConnectionHandler, error)

	// OnHandlerEvent delivers an event a connection's handler produced
	// (handler.Custom) up to the behavior.
	OnHandlerEvent(peer peer.ID, event any)

	// OnSwarmEvent informs the behavior of swarm-level occurrences
	// (connection established/closed, dial failures). The swarm passes
	// the pool package's own event values (pool.ConnectionEstablished,
	// pool.ConnectionClosed, pool.DialFailed), which this package cannot
	// name without an import cycle, so this takes `any` and behaviors
	// type-switch on what they care about.
	OnSwarmEvent(event any)

	// Poll performs one non-blocking pass, returning an event and true,
	// or false if nothing is ready.
	Poll(ctx context.Context) (BehaviorEvent, bool)
}
