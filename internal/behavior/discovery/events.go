package discovery

import (
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// FoundPeer is surfaced once per answer an mDNS query resolves; an
// address that answers again on a later query is surfaced again (no
// deduplication across queries). The embedding application (cmd/volans-node) is
// responsible for turning this into a swarm.Dial call; discovery
// itself has no reference back to the swarm.
type FoundPeer struct {
	Peer peer.ID
	Addr ma.Multiaddr
}
