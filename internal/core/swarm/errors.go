package swarm

import (
	"errors"
	"fmt"

	"github.com/cariers/volans/pkg/peer"
)

var (
	// ErrSwarmClosed is returned by any call made after Close.
	ErrSwarmClosed = errors.New("swarm closed")

	// ErrNoAddress is returned when Dial is given DialOpts without an
	// Addr.
	ErrNoAddress = errors.New("no address to dial")

	// ErrDialToSelf is returned when asked to dial the local peer id.
	ErrDialToSelf = errors.New("dial to self attempted")

	// ErrInvalidConfig is returned by Validate and by WithConfig/New when
	// a Config field is out of range.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrAborted reports that a pending dial was aborted before it
	// completed. No code path in this module returns it.
	ErrAborted = errors.New("dialing was aborted")
)

// PeerCondition gates whether Dial actually attempts a new connection to
// an already-known peer. Grounded on dial_opts.rs's PeerCondition.
type PeerCondition int

const (
	// ConditionAlways always dials, regardless of existing connections.
	ConditionAlways PeerCondition = iota
	// ConditionDisconnected only dials if the peer has no open connection.
	ConditionDisconnected
	// ConditionNotDialing only dials if no dial to the peer is already
	// in flight.
	ConditionNotDialing
	// ConditionDisconnectedAndNotDialing combines both checks.
	ConditionDisconnectedAndNotDialing
)

func (c PeerCondition) String() string {
	switch c {
	case ConditionAlways:
		return "always"
	case ConditionDisconnected:
		return "disconnected"
	case ConditionNotDialing:
		return "not dialing"
	case ConditionDisconnectedAndNotDialing:
		return "disconnected and not dialing"
	default:
		return "unknown"
	}
}

// PeerConditionError reports that Dial skipped a peer because condition
// was not met (the peer was already connected and/or already dialing).
type PeerConditionError struct {
	Peer      peer.ID
	Condition PeerCondition
}

func (e *PeerConditionError) Error() string {
	return fmt.Sprintf("peer condition %s not met for %s", e.Condition, e.Peer.ShortString())
}

// WrongPeerIDError reports that a dial reached a peer other than the one
// expected.
type WrongPeerIDError struct{ Obtained peer.ID }

func (e *WrongPeerIDError) Error() string {
	return fmt.Sprintf("dialed wrong peer id: %s", e.Obtained.ShortString())
}

// DialError aggregates every address-level failure from one Dial call.
type DialError struct {
	Peer   peer.ID
	Errors []error
}

func (e *DialError) Error() string {
	switch len(e.Errors) {
	case 0:
		return fmt.Sprintf("failed to dial %s: unknown error", e.Peer.ShortString())
	case 1:
		return fmt.Sprintf("failed to dial %s: %v", e.Peer.ShortString(), e.Errors[0])
	default:
		return fmt.Sprintf("failed to dial %s: %d errors: %v", e.Peer.ShortString(), len(e.Errors), e.Errors)
	}
}

func (e *DialError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// ListenError reports that Listen failed to bind addr.
type ListenError struct {
	Err error
}

func (e *ListenError) Error() string { return fmt.Sprintf("listen failed: %v", e.Err) }
func (e *ListenError) Unwrap() error { return e.Err }
