package behavior

import (
	"context"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// Dummy accepts every connection with a handler.Dummy, surfaces no
// events of its own, and never produces a HandlerAction/CloseConnection.
// Useful as a NetworkBehavior in tests that only exercise the swarm's
// dial/listen/pool wiring.
type Dummy struct{}

func (Dummy) NewHandler(peer.ID, ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return handler.Dummy{}, nil
}

func (Dummy) OnHandlerEvent(peer.ID, any) {}
func (Dummy) OnSwarmEvent(any)            {}
func (Dummy) Poll(context.Context) (BehaviorEvent, bool) {
	return BehaviorEvent{}, false
}
