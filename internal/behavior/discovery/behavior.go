package discovery

import (
	"context"
	"sync"
	"time"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("behavior/discovery")

// Behavior has no per-connection protocol of its own; it periodically
// queries mDNS and surfaces whatever addresses answer as FoundPeer
// events (peer identity unresolved until a subsequent connection is
// identified).
type Behavior struct {
	cfg Config

	mu     sync.Mutex
	server *mdnsServer
	found  []FoundPeer
}

func New(opts ...Option) *Behavior {
	return NewFromConfig(newConfig(opts...))
}

func NewFromConfig(cfg Config) *Behavior {
	return &Behavior{cfg: cfg}
}

// Start brings up the mDNS responder and begins the query loop; it is
// invoked from an fx lifecycle hook (see module.go) rather than at
// construction, since it opens a multicast socket.
func (b *Behavior) Start(ctx context.Context) error {
	srv, err := newMdnsServer()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.server = srv
	b.mu.Unlock()

	go b.loop(ctx)
	return nil
}

func (b *Behavior) Close() error {
	b.mu.Lock()
	srv := b.server
	b.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func (b *Behavior) loop(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.QueryInterval)
	defer ticker.Stop()
	for {
		b.queryOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Behavior) queryOnce(ctx context.Context) {
	b.mu.Lock()
	srv := b.server
	b.mu.Unlock()
	if srv == nil {
		return
	}

	queryCtx, cancel := context.WithTimeout(ctx, b.cfg.QueryInterval)
	defer cancel()

	addr, err := srv.query(queryCtx)
	if err != nil {
		return
	}
	maddr, err := addrToMultiaddr(addr, b.cfg.AssumedPort)
	if err != nil {
		logger.Debug("discovery: unusable mdns answer", "addr", addr, "err", err)
		return
	}

	b.mu.Lock()
	b.found = append(b.found, FoundPeer{Addr: maddr})
	b.mu.Unlock()
}

func (b *Behavior) NewHandler(peer.ID, corebehavior.ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return handler.Dummy{}, nil
}

func (b *Behavior) OnHandlerEvent(peer.ID, any) {}
func (b *Behavior) OnSwarmEvent(any)            {}

func (b *Behavior) Poll(context.Context) (corebehavior.BehaviorEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.found) == 0 {
		return corebehavior.BehaviorEvent{}, false
	}
	ev := b.found[0]
	b.found = b.found[1:]
	return corebehavior.BehaviorEvent{Kind: corebehavior.EventBehavior, Event: ev}, true
}
