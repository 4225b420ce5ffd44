package ping

import (
	"context"
	"sync"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("behavior/ping")

// Behavior is the swarm-wide half of the ping protocol: it has no
// dial/listen concerns of its own, just forwarding each connection's
// Handler results as Events.
type Behavior struct {
	cfg Config

	mu     sync.Mutex
	events []Event
}

// New returns a Behavior with the given options applied over
// DefaultConfig.
func New(opts ...Option) *Behavior {
	return &Behavior{cfg: newConfig(opts...)}
}

// NewFromConfig builds a Behavior from an already-resolved Config, the
// shape fx.Provide wants.
func NewFromConfig(cfg Config) *Behavior {
	return &Behavior{cfg: cfg}
}

func (b *Behavior) NewHandler(peer.ID, corebehavior.ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return NewHandler(b.cfg), nil
}

func (b *Behavior) OnHandlerEvent(p peer.ID, event any) {
	r, ok := event.(Result)
	if !ok {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, Event{Peer: p, Result: r})
	b.mu.Unlock()
}

func (b *Behavior) OnSwarmEvent(any) {}

func (b *Behavior) Poll(context.Context) (corebehavior.BehaviorEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return corebehavior.BehaviorEvent{}, false
	}
	ev := b.events[0]
	b.events = b.events[1:]
	return corebehavior.BehaviorEvent{Kind: corebehavior.EventBehavior, Event: ev}, true
}
