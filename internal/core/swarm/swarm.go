package swarm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/connection"
	"github.com/cariers/volans/internal/core/pool"
	"github.com/cariers/volans/internal/core/swarm/bandwidth"
	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("core/swarm")

// pollInterval bounds how long the behavior's own readiness (e.g. a
// periodic ping timer) can go unnoticed when the pool has nothing to
// report.
const pollInterval = 20 * time.Millisecond

// ListenerID identifies one bound listener for the lifetime of the
// process.
type ListenerID uint64

var nextListenerID atomic.Uint64

func newListenerID() ListenerID { return ListenerID(nextListenerID.Add(1)) }

// Event is delivered on Swarm.Events() for every occurrence a caller
// needs to observe beyond what the NetworkBehavior already surfaces
// through its own API.
type Event interface{ isEvent() }

// Behavior carries an event the NetworkBehavior chose to surface.
type Behavior struct{ Event any }

type ConnectionEstablished struct {
	ID   connection.ID
	Peer peer.ID
	Kind behavior.ConnectionKind
	Addr ma.Multiaddr
}

type ConnectionClosed struct {
	ID   connection.ID
	Peer peer.ID
	Err  error
}

// OutgoingConnectionError reports that a Dial's address failed before a
// peer identity could even be confirmed.
type OutgoingConnectionError struct {
	Addr ma.Multiaddr
	Err  error
}

// IncomingConnectionError reports that an accepted raw connection failed
// authentication or multiplexing before a peer identity was confirmed.
type IncomingConnectionError struct {
	Addr ma.Multiaddr
	Err  error
}

type NewListenAddr struct {
	ListenerID ListenerID
	Addr       ma.Multiaddr
}

type ExpiredListenAddr struct {
	ListenerID ListenerID
	Addr       ma.Multiaddr
}

type ListenerClosed struct {
	ListenerID ListenerID
	Err        error
}

func (Behavior) isEvent()                {}
func (ConnectionEstablished) isEvent()   {}
func (ConnectionClosed) isEvent()        {}
func (OutgoingConnectionError) isEvent() {}
func (NewListenAddr) isEvent()           {}
func (ExpiredListenAddr) isEvent()       {}
func (ListenerClosed) isEvent()          {}
func (IncomingConnectionError) isEvent() {}

// Swarm drives the transport stack, connection pool, and one
// NetworkBehavior as a single unit.
type Swarm struct {
	local     peer.ID
	config    *Config
	behavior  behavior.NetworkBehavior
	transport transport.Transport[transport.EstablishedOutput]
	pool      *pool.Pool

	events chan Event

	mu              sync.Mutex
	listeners       map[ListenerID]*activeListener
	connected       map[peer.ID]int
	dialing         map[peer.ID]int
	pendingDialPeer map[string]peer.ID
	closed          bool
}

// New builds a Swarm over t, driving b's handlers and events. local is
// this process's own peer id, used to reject a Dial targeting itself.
func New(local peer.ID, t transport.Transport[transport.EstablishedOutput], b behavior.NetworkBehavior, opts ...Option) (*Swarm, error) {
	s := &Swarm{
		local:           local,
		config:          DefaultConfig(),
		behavior:        b,
		transport:       t,
		events:          make(chan Event, 64),
		listeners:       make(map[ListenerID]*activeListener),
		connected:       make(map[peer.ID]int),
		dialing:         make(map[peer.ID]int),
		pendingDialPeer: make(map[string]peer.ID),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	var meter *bandwidth.Counter
	if s.config.MeterConnections {
		meter = bandwidth.NewCounter(bandwidth.DefaultConfig())
	}
	s.pool = pool.New(t, b.NewHandler, meter)
	return s, nil
}

// Events returns the channel Run publishes swarm-level occurrences on.
// The caller must keep draining it; a full buffer causes events to be
// dropped rather than blocking the event loop.
func (s *Swarm) Events() <-chan Event { return s.events }

// LocalPeer returns this swarm's own peer id.
func (s *Swarm) LocalPeer() peer.ID { return s.local }

// IsConnected reports whether at least one established connection to p
// is currently open.
func (s *Swarm) IsConnected(p peer.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[p] > 0
}

// ConnectedPeers returns every peer with at least one open connection.
func (s *Swarm) ConnectedPeers() []peer.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := make([]peer.ID, 0, len(s.connected))
	for p, n := range s.connected {
		if n > 0 {
			peers = append(peers, p)
		}
	}
	return peers
}

// Disconnect closes every open connection to p.
func (s *Swarm) Disconnect(p peer.ID) {
	s.pool.Commands() <- pool.Disconnect{Peer: p}
}

// Close stops accepting new connections on every listener. It does not
// tear down already-established connections; cancel the context passed
// to Run for that.
func (s *Swarm) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := make([]*activeListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.ln.Close()
	}
	return nil
}

// Run drives the connection pool and the behavior's own readiness for
// as long as ctx stays alive. It must run in its own goroutine.
func (s *Swarm) Run(ctx context.Context) {
	go s.pool.Run(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		s.pollBehavior(ctx)

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.pool.Events():
			if !ok {
				return
			}
			s.handlePoolEvent(ev)
		case <-ticker.C:
		}
	}
}

// pollBehavior drains every behavior event immediately available, one
// non-blocking pass per Run iteration.
func (s *Swarm) pollBehavior(ctx context.Context) {
	for {
		ev, ok := s.behavior.Poll(ctx)
		if !ok {
			return
		}
		switch ev.Kind {
		case behavior.EventBehavior:
			s.emit(Behavior{Event: ev.Event})
		case behavior.EventHandlerAction:
			s.pool.Commands() <- pool.NotifyHandlerCmd{Peer: ev.Peer, Notify: ev.Notify, Action: ev.Action}
		case behavior.EventCloseConnection:
			s.pool.Commands() <- pool.Disconnect{Peer: ev.Peer}
		}
	}
}

func (s *Swarm) handlePoolEvent(ev pool.Event) {
	switch e := ev.(type) {
	case pool.ConnectionEstablished:
		s.mu.Lock()
		s.connected[e.Peer]++
		s.mu.Unlock()
		if e.Kind == behavior.Outgoing {
			s.resolveDialPending(e.Addr)
		}
		s.behavior.OnSwarmEvent(e)
		s.emit(ConnectionEstablished{ID: e.ID, Peer: e.Peer, Kind: e.Kind, Addr: e.Addr})
	case pool.ConnectionClosed:
		s.mu.Lock()
		if n := s.connected[e.Peer] - 1; n > 0 {
			s.connected[e.Peer] = n
		} else {
			delete(s.connected, e.Peer)
		}
		s.mu.Unlock()
		s.behavior.OnSwarmEvent(e)
		s.emit(ConnectionClosed{ID: e.ID, Peer: e.Peer, Err: e.Err})
	case pool.DialFailed:
		s.resolveDialPending(e.Addr)
		s.behavior.OnSwarmEvent(e)
		s.emit(OutgoingConnectionError{Addr: e.Addr, Err: e.Err})
	case pool.BehaviorNotify:
		s.behavior.OnHandlerEvent(e.Peer, e.Event)
	}
}

// resolveDialPending clears the dialing-count bookkeeping Dial set up
// for addr, keyed by address since pool events don't carry the expected
// peer id back once a dial has resolved or failed.
func (s *Swarm) resolveDialPending(addr ma.Multiaddr) {
	key := addr.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pendingDialPeer[key]
	if !ok {
		return
	}
	delete(s.pendingDialPeer, key)
	if n := s.dialing[p] - 1; n > 0 {
		s.dialing[p] = n
	} else {
		delete(s.dialing, p)
	}
}

func (s *Swarm) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		logger.Warn("swarm event dropped, consumer too slow")
	}
}
