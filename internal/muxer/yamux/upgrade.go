package yamux

import (
	hyamux "github.com/hashicorp/yamux"

	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/transport"
)

// Upgrade implements transport.MultiplexUpgrade by opening a yamux
// session over an authenticated connection, client-side for dialers and
// server-side for listeners.
type Upgrade struct {
	Config *hyamux.Config
}

func (u Upgrade) Multiplex(conn transport.AuthedConn, point transport.ConnectedPoint) (muxing.StreamMuxer, error) {
	if point.Dialer {
		return NewClient(conn.Conn, u.Config)
	}
	return NewServer(conn.Conn, u.Config)
}
