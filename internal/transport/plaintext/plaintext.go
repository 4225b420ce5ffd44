// Package plaintext implements the authenticate upgrade stage as a
// non-cryptographic stand-in for the abstract authenticate upgrade that
// SPEC_FULL.md's Non-goals deliberately leave out of scope ("cryptographic
// key agreement"). Each side simply exchanges its 32-byte PeerId.
// Grounded on the authenticate-upgrade shape implied by
// original_source/volans-core/src/transport.rs's upgrade() builder
// ("expecting Output (PeerId, D)"), with D instantiated to the remote's
// raw connection itself.
package plaintext

import (
	"errors"
	"fmt"
	"io"

	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("transport/plaintext")

// ErrLoopback is returned when the remote side presents the local peer id.
var ErrLoopback = errors.New("plaintext: remote presented local peer id")

// Upgrade implements transport.AuthUpgrade by exchanging a 4-byte
// protocol-version tag and each side's 32-byte PeerId.
type Upgrade struct {
	Local peer.ID
}

const versionTag = "pt01"

// Authenticate exchanges identities over conn. Both sides write first
// (there is no dialer/listener asymmetry in this handshake), then both
// read; this avoids a head-of-line dependency that would otherwise need
// point.Dialer to break a tie.
func (u Upgrade) Authenticate(conn transport.RawConn, point transport.ConnectedPoint) (transport.AuthedConn, error) {
	writeErr := make(chan error, 1)
	go func() {
		var buf [4 + peer.Size]byte
		copy(buf[:4], versionTag)
		copy(buf[4:], u.Local[:])
		_, err := conn.Write(buf[:])
		writeErr <- err
	}()

	var buf [4 + peer.Size]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		<-writeErr
		return transport.AuthedConn{}, fmt.Errorf("plaintext: reading handshake: %w", err)
	}
	if string(buf[:4]) != versionTag {
		<-writeErr
		return transport.AuthedConn{}, fmt.Errorf("plaintext: unsupported handshake version %q", buf[:4])
	}
	remote, err := peer.FromBytes(buf[4:])
	if err != nil {
		<-writeErr
		return transport.AuthedConn{}, err
	}
	if err := <-writeErr; err != nil {
		return transport.AuthedConn{}, fmt.Errorf("plaintext: writing handshake: %w", err)
	}
	if remote == u.Local {
		return transport.AuthedConn{}, ErrLoopback
	}
	logger.Debug("plaintext handshake complete", "remote", remote.ShortString(), "dialer", point.Dialer)
	return transport.AuthedConn{PeerID: remote, Conn: conn}, nil
}
