// Package pool implements the Connection Pool: it owns one goroutine per
// established connection, tracks pending dials, and exposes a bounded
// command/event channel pair to the swarm event loop. Grounded on
// original_source/volans-swarm/src/connection/pool.rs and
// connection/pool/task.rs.
package pool

import (
	"context"
	"sync"

	"github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/connection"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/swarm/bandwidth"
	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("core/pool")

// Default bounds on the pool's command and event channels, matching the
// original's defaults (32 commands in flight, 10 buffered events).
const (
	DefaultCommandBuffer = 32
	DefaultEventBuffer   = 10
)

// Command is sent by the swarm to the pool.
type Command interface{ isCommand() }

// Dial asks the pool to establish an outbound connection to Addr,
// expecting Expected (the zero peer.ID means "unknown until
// authenticated").
type Dial struct {
	Addr     ma.Multiaddr
	Expected peer.ID
}

// NotifyHandlerCmd forwards a behavior action to one, any, or all of a
// peer's open connections.
type NotifyHandlerCmd struct {
	Peer   peer.ID
	Notify behavior.NotifyHandler
	Action any
}

// Disconnect closes every open connection to Peer.
type Disconnect struct{ Peer peer.ID }

func (Dial) isCommand()             {}
func (NotifyHandlerCmd) isCommand() {}
func (Disconnect) isCommand()       {}

// Event is sent by the pool to the swarm.
type Event interface{ isEvent() }

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

type DialFailed struct {
	Addr ma.Multiaddr
	Err  error
}

type BehaviorNotify struct {
	Peer  peer.ID
	Event any
}

func (ConnectionEstablished) isEvent() {}
func (ConnectionClosed) isEvent()      {}
func (DialFailed) isEvent()            {}
func (BehaviorNotify) isEvent()        {}

// NewHandlerFunc builds the per-connection handler once a connection's
// peer identity and direction are known, the pool's hook into the
// swarm's NetworkBehavior.
type NewHandlerFunc func(p peer.ID, kind behavior.ConnectionKind, addr ma.Multiaddr) (handler.ConnectionHandler, error)

// Pool owns every established connection plus pending dials, and
// multiplexes their events onto one channel for the swarm event loop.
type Pool struct {
	transport  transport.Transport[transport.EstablishedOutput]
	newHandler NewHandlerFunc
	meter      *bandwidth.Counter

	commands   chan Command
	events     chan Event
	connEvents chan connEventMsg

	mu     sync.Mutex
	conns  map[connection.ID]*entry
	closed bool
}

type entry struct {
	conn *connection.Connection
	peer peer.ID
}

type connEventMsg struct {
	id connection.ID
	ev connection.Event
}

// New creates a pool dialing through t and building handlers via
// newHandler for both dialed and accepted connections. meter may be nil,
// in which case connections are not metered.
func New(t transport.Transport[transport.EstablishedOutput], newHandler NewHandlerFunc, meter *bandwidth.Counter) *Pool {
	return &Pool{
		transport:  t,
		newHandler: newHandler,
		meter:      meter,
		commands:   make(chan Command, DefaultCommandBuffer),
		events:     make(chan Event, DefaultEventBuffer),
		connEvents: make(chan connEventMsg, DefaultEventBuffer),
		conns:      make(map[connection.ID]*entry),
	}
}

func (p *Pool) Commands() chan<- Command { return p.commands }
func (p *Pool) Events() <-chan Event     { return p.events }

// Run is the pool's command loop; it must run in its own goroutine for
// the lifetime of the swarm.
func (p *Pool) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return
		case cmd := <-p.commands:
			p.applyCommand(ctx, cmd)
		case msg := <-p.connEvents:
			p.handleConnEvent(msg)
		}
	}
}

func (p *Pool) applyCommand(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case Dial:
		go p.dial(ctx, c)
	case NotifyHandlerCmd:
		p.notify(c)
	case Disconnect:
		p.disconnect(c.Peer)
	}
}

func (p *Pool) dial(ctx context.Context, d Dial) {
	ch, err := p.transport.Dial(ctx, d.Addr)
	if err != nil {
		p.events <- DialFailed{Addr: d.Addr, Err: err}
		return
	}
	r := <-ch
	if r.Err != nil {
		p.events <- DialFailed{Addr: d.Addr, Err: r.Err}
		return
	}
	var zero peer.ID
	if d.Expected != zero && r.Output.PeerID != d.Expected {
		r.Output.Muxer.Close()
		p.events <- DialFailed{Addr: d.Addr, Err: transport.ErrPeerIDMismatch}
		return
	}
	p.establish(ctx, r.Output.PeerID, r.Output.Muxer, behavior.Outgoing, d.Addr)
}

// Accept registers an already-upgraded inbound connection, produced by
// the swarm's listener-event loop from a transport.EstablishedOutput.
func (p *Pool) Accept(ctx context.Context, peerID peer.ID, muxer muxing.StreamMuxer, addr ma.Multiaddr) {
	p.establish(ctx, peerID, muxer, behavior.Incoming, addr)
}

func (p *Pool) establish(ctx context.Context, peerID peer.ID, muxer muxing.StreamMuxer, kind behavior.ConnectionKind, addr ma.Multiaddr) {
	h, err := p.newHandler(peerID, kind, addr)
	if err != nil {
		muxer.Close()
		p.events <- DialFailed{Addr: addr, Err: err}
		return
	}
	id := connection.NewID()
	var opts []connection.Option
	if p.meter != nil {
		opts = append(opts, connection.WithMeter(p.meter))
	}
	conn := connection.New(id, peerID, muxer, h, opts...)

	p.mu.Lock()
	p.conns[id] = &entry{conn: conn, peer: peerID}
	p.mu.Unlock()

	go conn.Run(ctx)
	go p.pumpConnEvents(id, conn)

	logger.Info("connection established", "peer", peerID.ShortString(), "kind", kind, "addr", addr)
	p.events <- ConnectionEstablished{ID: id, Peer: peerID, Kind: kind, Addr: addr}
}

func (p *Pool) pumpConnEvents(id connection.ID, conn *connection.Connection) {
	for ev := range conn.Events() {
		p.connEvents <- connEventMsg{id: id, ev: ev}
	}
}

func (p *Pool) notify(c NotifyHandlerCmd) {
	p.mu.Lock()
	var targets []*entry
	for _, e := range p.conns {
		if e.peer == c.Peer {
			targets = append(targets, e)
			if c.Notify == behavior.NotifyOne || c.Notify == behavior.NotifyAny {
				break
			}
		}
	}
	p.mu.Unlock()
	for _, e := range targets {
		e.conn.Commands() <- connection.NotifyHandlerCommand{Action: c.Action}
	}
}

func (p *Pool) disconnect(peerID peer.ID) {
	p.mu.Lock()
	var targets []*entry
	for _, e := range p.conns {
		if e.peer == peerID {
			targets = append(targets, e)
		}
	}
	p.mu.Unlock()
	for _, e := range targets {
		e.conn.Commands() <- connection.CloseCommand{}
	}
}

func (p *Pool) handleConnEvent(msg connEventMsg) {
	p.mu.Lock()
	e := p.conns[msg.id]
	if _, ok := msg.ev.(connection.ClosedEvent); ok {
		delete(p.conns, msg.id)
	}
	p.mu.Unlock()
	if e == nil {
		return
	}
	switch ev := msg.ev.(type) {
	case connection.HandlerCustomEvent:
		p.events <- BehaviorNotify{Peer: e.peer, Event: ev.Event}
	case connection.ClosedEvent:
		p.events <- ConnectionClosed{ID: msg.id, Peer: e.peer, Err: ev.Err}
	}
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, e := range p.conns {
		e.conn.Commands() <- connection.CloseCommand{}
	}
}
