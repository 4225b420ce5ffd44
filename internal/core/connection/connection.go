// Package connection drives one established (authenticated, multiplexed)
// connection: negotiating inbound and outbound substreams against its
// handler.ConnectionHandler and applying the pool's shutdown requests.
// Grounded on original_source/volans-swarm/src/connection.rs,
// connection/inbound.rs and connection/outbound.rs.
//
// The original's Inbound/Outbound futures are poll()ed by an async
// executor that parks on a Waker when there is nothing to do. Go has no
// direct equivalent without hand-rolling a waker, so this event loop
// instead ticks on a bounded interval in addition to blocking on real
// channel events (new inbound streams, pool commands); see pollInterval
// below. This trades a small, bounded scheduling latency for avoiding
// both a busy-spin loop and a custom waker mechanism.
package connection

import (
	"context"
	"time"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/streamselect"
	"github.com/cariers/volans/internal/core/swarm/bandwidth"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("core/connection")

// pollInterval bounds how long a handler's readiness (e.g. a ping
// behavior's interval timer) can go unnoticed when nothing else wakes
// the event loop.
const pollInterval = 20 * time.Millisecond

// Command is sent by the owning pool to influence a running connection.
type Command interface{ isCommand() }

// NotifyHandlerCommand delivers a behavior action to the handler.
type NotifyHandlerCommand struct{ Action any }

// CloseCommand requests ShutdownAsap.
type CloseCommand struct{}

func (NotifyHandlerCommand) isCommand() {}
func (CloseCommand) isCommand()         {}

// Event is sent by a running connection up to the owning pool.
type Event interface{ isEvent() }

// HandlerCustomEvent carries a handler.Custom event up to the pool,
// which forwards it to the NetworkBehavior.
type HandlerCustomEvent struct{ Event any }

// ClosedEvent reports that the connection's event loop has returned.
type ClosedEvent struct{ Err error }

func (HandlerCustomEvent) isEvent() {}
func (ClosedEvent) isEvent()        {}

// Connection owns one muxed session and its handler for the lifetime of
// a physical connection.
type Connection struct {
	ID      ID
	Peer    peer.ID
	muxer   muxing.StreamMuxer
	handler handler.ConnectionHandler

	commands chan Command
	events   chan Event
	inbound  chan muxing.Stream

	counter  ActiveStreamCounter
	shutdown Shutdown

	meter *bandwidth.Counter
}

// Option configures optional Connection behavior at construction time.
type Option func(*Connection)

// WithMeter records every negotiated stream's byte counts into c, broken
// down by remote peer and negotiated protocol id.
func WithMeter(c *bandwidth.Counter) Option {
	return func(conn *Connection) { conn.meter = c }
}

// New creates a connection driver. Call Run in its own goroutine to
// start the event loop; the pool reads Events() and writes Commands().
func New(id ID, p peer.ID, muxer muxing.StreamMuxer, h handler.ConnectionHandler, opts ...Option) *Connection {
	c := &Connection{
		ID:       id,
		Peer:     p,
		muxer:    muxer,
		handler:  h,
		commands: make(chan Command, 8),
		events:   make(chan Event, 8),
		inbound:  make(chan muxing.Stream, 8),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.acceptLoop()
	return c
}

func (c *Connection) Commands() chan<- Command { return c.commands }
func (c *Connection) Events() <-chan Event      { return c.events }

// acceptLoop pumps muxer.AcceptStream into c.inbound so Run's select can
// treat inbound substreams the same as any other wakeup source.
func (c *Connection) acceptLoop() {
	for {
		s, err := c.muxer.AcceptStream()
		if err != nil {
			return
		}
		c.inbound <- s
	}
}

// Run is the connection's event loop: one non-blocking pass over the
// handler per iteration, separated by a blocking select over whatever
// would let it make progress sooner. Returns once the connection is
// closed, sending a final ClosedEvent.
func (c *Connection) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var closeErr error
	for {
		c.pollOnce(ctx)

		if c.shutdown.Kind == ShutdownAsap && c.counter.Load() == 0 && !c.handler.KeepAlive() {
			break
		}

		timer := c.shutdown.Timer()
		select {
		case <-ctx.Done():
			closeErr = ctx.Err()
			goto done
		case cmd := <-c.commands:
			c.applyCommand(cmd)
		case s := <-c.inbound:
			go c.negotiateInbound(ctx, s)
		case <-ticker.C:
		case <-timer:
			c.shutdown = Shutdown{Kind: ShutdownAsap}
		}
	}
done:
	c.muxer.Close()
	c.events <- ClosedEvent{Err: closeErr}
	close(c.events)
}

func (c *Connection) applyCommand(cmd Command) {
	switch v := cmd.(type) {
	case NotifyHandlerCommand:
		c.handler.OnBehaviorAction(v.Action)
	case CloseCommand:
		c.shutdown = Shutdown{Kind: ShutdownAsap}
	}
}

// pollOnce drains as many ready handler events as are immediately
// available, the "one pass through a non-blocking select" translation
// of the original's single Handler::poll call per executor wakeup.
func (c *Connection) pollOnce(ctx context.Context) {
	for {
		ev, ok := c.handler.Poll(ctx)
		if !ok {
			return
		}
		switch e := ev.(type) {
		case handler.OutboundSubstreamRequest:
			go c.negotiateOutbound(ctx, e.Protocol)
		case handler.Custom:
			c.events <- HandlerCustomEvent{Event: e.Event}
		case handler.Close:
			c.shutdown = Shutdown{Kind: ShutdownAsap}
			return
		}
	}
}

func (c *Connection) negotiateInbound(ctx context.Context, s muxing.Stream) {
	c.counter.Inc()
	defer c.counter.Dec()

	supported := c.handler.ListenProtocol().Protocols
	if len(supported) == 0 {
		s.Close()
		return
	}
	negotiated, err := streamselect.ListenerSelect(s, supported)
	if err != nil {
		c.handler.OnConnectionEvent(handler.ListenUpgradeError{
			Error: &handler.StreamUpgradeError{Err: err},
		})
		s.Close()
		return
	}
	proto := negotiated.Protocol()
	c.handler.OnConnectionEvent(handler.FullyNegotiatedInbound{
		Protocol: proto,
		Stream:   c.meteredStream(negotiated, s, proto),
	})
}

func (c *Connection) negotiateOutbound(ctx context.Context, proto handler.SubstreamProtocol) {
	c.counter.Inc()
	defer c.counter.Dec()

	dialCtx, cancel := context.WithTimeout(ctx, proto.timeout())
	defer cancel()

	s, err := c.muxer.OpenStream()
	if err != nil {
		c.handler.OnConnectionEvent(handler.DialUpgradeError{
			Info:  proto.Info,
			Error: &handler.StreamUpgradeError{Err: err},
		})
		return
	}

	type result struct {
		n   *streamselect.Negotiated
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := streamselect.DialerSelect(s, proto.Protocols)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.Close()
			c.handler.OnConnectionEvent(handler.DialUpgradeError{
				Info:  proto.Info,
				Error: &handler.StreamUpgradeError{Err: r.err},
			})
			return
		}
		negotiatedProto := r.n.Protocol()
		c.handler.OnConnectionEvent(handler.FullyNegotiatedOutbound{
			Protocol: negotiatedProto,
			Stream:   c.meteredStream(r.n, s, negotiatedProto),
			Info:     proto.Info,
		})
	case <-dialCtx.Done():
		s.Close()
		c.handler.OnConnectionEvent(handler.DialUpgradeError{
			Info:  proto.Info,
			Error: &handler.StreamUpgradeError{Timeout: true, Err: dialCtx.Err()},
		})
	}
}

// meteredStream wraps n (the negotiated substream) as a muxing.Stream,
// recording its byte counts into c.meter when one is configured.
func (c *Connection) meteredStream(n *streamselect.Negotiated, raw muxing.Stream, proto string) muxing.Stream {
	return negotiatedStream{Negotiated: n, raw: raw, meter: c.meter, peer: c.Peer.ShortString(), proto: proto}
}

// negotiatedStream adapts a *streamselect.Negotiated (an
// io.ReadWriteCloser) back into a muxing.Stream by forwarding
// CloseWrite to the underlying muxed stream, and reports every
// Read/Write's byte count to meter when configured.
type negotiatedStream struct {
	*streamselect.Negotiated
	raw   muxing.Stream
	meter *bandwidth.Counter
	peer  string
	proto string
}

func (n negotiatedStream) CloseWrite() error { return n.raw.CloseWrite() }

func (n negotiatedStream) Read(p []byte) (int, error) {
	nn, err := n.Negotiated.Read(p)
	if nn > 0 && n.meter != nil {
		n.meter.LogRecvStream(int64(nn), n.proto, n.peer)
	}
	return nn, err
}

func (n negotiatedStream) Write(p []byte) (int, error) {
	nn, err := n.Negotiated.Write(p)
	if nn > 0 && n.meter != nil {
		n.meter.LogSentStream(int64(nn), n.proto, n.peer)
	}
	return nn, err
}
