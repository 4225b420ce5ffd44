package identify

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("behavior/identify")

// Behavior tracks each own listen address (mutable, e.g. as new
// listeners come up) and the bounded cache of what every identified
// peer reported about itself.
type Behavior struct {
	cfg Config

	mu          sync.Mutex
	listenAddrs []string

	cache *lru.Cache[peer.ID, Info]

	events []Event
}

func New(opts ...Option) *Behavior {
	return NewFromConfig(newConfig(opts...))
}

// NewFromConfig builds a Behavior from an already-resolved Config, the
// shape fx.Provide wants.
func NewFromConfig(cfg Config) *Behavior {
	cache, err := lru.New[peer.ID, Info](cfg.CacheSize)
	if err != nil {
		// Only possible if CacheSize <= 0; fall back to a minimal cache
		// rather than failing construction.
		cache, _ = lru.New[peer.ID, Info](1)
	}
	return &Behavior{cfg: cfg, cache: cache}
}

// SetListenAddrs replaces the set of addresses advertised to peers on
// their next identify exchange.
func (b *Behavior) SetListenAddrs(addrs []ma.Multiaddr) {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.String()
	}
	b.mu.Lock()
	b.listenAddrs = strs
	b.mu.Unlock()
}

// PeerInfo returns what was last learned about p, if anything.
func (b *Behavior) PeerInfo(p peer.ID) (Info, bool) {
	return b.cache.Get(p)
}

func (b *Behavior) localMessage() Message {
	b.mu.Lock()
	addrs := append([]string(nil), b.listenAddrs...)
	b.mu.Unlock()
	return Message{ListenAddrs: addrs, ProtocolVersion: ProtocolVersion}
}

func (b *Behavior) NewHandler(peer.ID, corebehavior.ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return NewHandler(b.cfg, b.localMessage), nil
}

func (b *Behavior) OnHandlerEvent(p peer.ID, event any) {
	r, ok := event.(Result)
	if !ok || r.Err != nil {
		return
	}
	b.cache.Add(p, r.Info)

	b.mu.Lock()
	b.events = append(b.events, Event{Peer: p, Info: r.Info})
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
