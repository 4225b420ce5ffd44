package identify

import "github.com/cariers/volans/pkg/peer"

// Info is what the Behavior learns about a peer from its identify
// message, retained in the LRU cache so later lookups (e.g. dialing a
// peer back at one of its other listen addresses) don't need a fresh
// round trip.
type Info struct {
	ListenAddrs     []string
	ProtocolVersion string
}

// Event is surfaced once per successful identify exchange.
type Event struct {
	Peer peer.ID
	Info Info
}
