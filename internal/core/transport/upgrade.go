package transport

import (
	"io"

	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/pkg/peer"
)

// RawConn is what a concrete transport (tcp, ws) produces before any
// upgrade runs: an unauthenticated byte stream.
type RawConn interface {
	io.ReadWriteCloser
}

// AuthedConn is the output of the authenticate upgrade stage: a raw
// connection bound to a verified remote PeerId. In this repository the
// authenticate upgrade is the plaintext stand-in named in SPEC_FULL.md's
// Non-goals (no real cryptographic key agreement).
type AuthedConn struct {
	PeerID peer.ID
	Conn   RawConn
}

// EstablishedOutput is the output of the multiplex upgrade stage: what
// the Connection Pool actually receives for a resolved dial or accept.
type EstablishedOutput struct {
	PeerID peer.ID
	Muxer  muxing.StreamMuxer
}

// AuthUpgrade performs the authenticate stage: given a raw connection and
// knowledge of which side initiated it, produces an AuthedConn.
type AuthUpgrade interface {
	Authenticate(conn RawConn, point ConnectedPoint) (AuthedConn, error)
}

// MultiplexUpgrade performs the multiplex stage: wraps an authenticated
// connection in a stream muxer.
type MultiplexUpgrade interface {
	Multiplex(conn AuthedConn, point ConnectedPoint) (muxing.StreamMuxer, error)
}

// Authenticate runs auth over every connection t produces, in both
// directions, yielding Transport[AuthedConn].
func Authenticate(t Transport[RawConn], auth AuthUpgrade) Transport[AuthedConn] {
	return Map[RawConn, AuthedConn](t, func(raw RawConn, point ConnectedPoint) (AuthedConn, error) {
		return auth.Authenticate(raw, point)
	})
}

// Multiplex wraps every authenticated connection t produces in mux,
// yielding Transport[EstablishedOutput] — the final stage the Connection
// Pool consumes.
func Multiplex(t Transport[AuthedConn], mux MultiplexUpgrade) Transport[EstablishedOutput] {
	return Map[AuthedConn, EstablishedOutput](t, func(ac AuthedConn, point ConnectedPoint) (EstablishedOutput, error) {
		muxer, err := mux.Multiplex(ac, point)
		if err != nil {
			return EstablishedOutput{}, err
		}
		return EstablishedOutput{PeerID: ac.PeerID, Muxer: muxer}, nil
	})
}

// UpgradeRaw composes Authenticate then Multiplex in one call, the
// direct analogue of the original's "authenticate(u).multiplex(u).boxed()"
// builder chain.
func UpgradeRaw(t Transport[RawConn], auth AuthUpgrade, mux MultiplexUpgrade) Transport[EstablishedOutput] {
	return Multiplex(Authenticate(t, auth), mux)
}
