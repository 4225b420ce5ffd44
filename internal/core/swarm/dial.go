package swarm

import (
	"github.com/cariers/volans/internal/core/pool"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// DialOpts describes one outbound dial attempt. Grounded on
// original_source/volans-swarm/src/dial_opts.rs.
type DialOpts struct {
	Addr      ma.Multiaddr
	PeerID    peer.ID
	Condition PeerCondition
}

// NewDialOpts builds a DialOpts dialing addr, optionally expecting
// peerID (the zero value means "accept whoever answers"). Condition
// defaults to ConditionAlways.
func NewDialOpts(addr ma.Multiaddr, peerID peer.ID) DialOpts {
	return DialOpts{Addr: addr, PeerID: peerID, Condition: ConditionAlways}
}

// WithCondition returns a copy of o gated by condition.
func (o DialOpts) WithCondition(condition PeerCondition) DialOpts {
	o.Condition = condition
	return o
}

// Dial asks the connection pool to establish an outbound connection,
// gated by opts.Condition when opts.PeerID is set. It returns once the
// dial has been queued (or rejected by PeerCondition/ErrDialToSelf), not
// once it has completed; completion is reported on Events() as either
// ConnectionEstablished or OutgoingConnectionError.
func (s *Swarm) Dial(opts DialOpts) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSwarmClosed
	}
	if opts.Addr == nil {
		s.mu.Unlock()
		return ErrNoAddress
	}

	var zero peer.ID
	if opts.PeerID != zero {
		if opts.PeerID == s.local {
			s.mu.Unlock()
			return ErrDialToSelf
		}

		connected := s.connected[opts.PeerID] > 0
		dialingNow := s.dialing[opts.PeerID] > 0
		var blocked bool
		switch opts.Condition {
		case ConditionDisconnected:
			blocked = connected
		case ConditionNotDialing:
			blocked = dialingNow
		case ConditionDisconnectedAndNotDialing:
			blocked = connected || dialingNow
		}
		if blocked {
			s.mu.Unlock()
			return &PeerConditionError{Peer: opts.PeerID, Condition: opts.Condition}
		}

		s.dialing[opts.PeerID]++
		s.pendingDialPeer[opts.Addr.String()] = opts.PeerID
	}
	s.mu.Unlock()

	s.pool.Commands() <- pool.Dial{Addr: opts.Addr, Expected: opts.PeerID}
	return nil
}
