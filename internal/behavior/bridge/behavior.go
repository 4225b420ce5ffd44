package bridge

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/pool"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

var logger = log.Logger("behavior/bridge")

// ErrNotConnected is returned by Connect when the relay isn't
// (currently) a connected peer, so no /v1/bridge substream could be
// opened against it.
var ErrNotConnected = errors.New("bridge: relay is not connected")

type pendingSource struct {
	destination peer.ID
	stream      muxing.Stream
}

type pendingConnect struct {
	ch chan ConnectResult
}

// Behavior coordinates all three bridge roles across every connection:
// client (asking a relay to bridge), relay (matching source/destination
// and splicing), and destination (just surfacing the inbound tunnel).
type Behavior struct {
	cfg Config

	mu        sync.Mutex
	connected map[peer.ID]struct{}
	sources   map[string]pendingSource
	connects  map[string]pendingConnect
	queue     []corebehavior.BehaviorEvent
}

func New(opts ...Option) *Behavior {
	return NewFromConfig(newConfig(opts...))
}

func NewFromConfig(cfg Config) *Behavior {
	return &Behavior{
		cfg:       cfg,
		connected: make(map[peer.ID]struct{}),
		sources:   make(map[string]pendingSource),
		connects:  make(map[string]pendingConnect),
	}
}

// Connect asks relay to bridge a stream through to destination,
// blocking until the relay answers, the peer it asks isn't connected,
// or ctx is done.
func (b *Behavior) Connect(ctx context.Context, relay, destination peer.ID) (muxing.Stream, error) {
	b.mu.Lock()
	if _, ok := b.connected[relay]; !ok {
		b.mu.Unlock()
		return nil, ErrNotConnected
	}
	id := uuid.NewString()
	ch := make(chan ConnectResult, 1)
	b.connects[id] = pendingConnect{ch: ch}
	b.queue = append(b.queue, corebehavior.BehaviorEvent{
		Kind:   corebehavior.EventHandlerAction,
		Peer:   relay,
		Notify: corebehavior.NotifyOne,
		Action: requestBridgeConnect{correlationID: id, destination: destination.Bytes()},
	})
	b.mu.Unlock()

	select {
	case r := <-ch:
		return r.Stream, r.Err
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.connects, id)
		b.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (b *Behavior) NewHandler(peer.ID, corebehavior.ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return NewHandler(b.cfg), nil
}

// OnSwarmEvent tracks which peers are currently connected, so a
// relay-role bridge request can be answered synchronously instead of
// waiting on a dial. Grounded on the same pool.ConnectionEstablished/
// pool.ConnectionClosed events the swarm layer already forwards to
// every NetworkBehavior.
func (b *Behavior) OnSwarmEvent(event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch e := event.(type) {
	case pool.ConnectionEstablished:
		b.connected[e.Peer] = struct{}{}
	case pool.ConnectionClosed:
		delete(b.connected, e.Peer)
	}
}

func (b *Behavior) OnHandlerEvent(from peer.ID, event any) {
	switch e := event.(type) {
	case inboundBridgeRequest:
		b.handleInboundBridgeRequest(e)
	case relayConnectReady:
		b.handleRelayConnectReady(e)
	case connectResult:
		b.mu.Lock()
		pc, ok := b.connects[e.CorrelationID]
		if ok {
			delete(b.connects, e.CorrelationID)
		}
		b.mu.Unlock()
		if ok {
			pc.ch <- e.ConnectResult
		}
	case inboundBridged:
		b.mu.Lock()
		b.queue = append(b.queue, corebehavior.BehaviorEvent{
			Kind:  corebehavior.EventBehavior,
			Event: InboundBridged{Relay: from, Stream: e.stream},
		})
		b.mu.Unlock()
	}
}

func (b *Behavior) handleInboundBridgeRequest(e inboundBridgeRequest) {
	dest, err := peer.FromBytes(e.destination)
	if err != nil {
		b.refuse(e.stream, e.correlationID, err)
		return
	}

	b.mu.Lock()
	_, connected := b.connected[dest]
	if !connected {
		b.mu.Unlock()
		b.refuse(e.stream, e.correlationID, ErrDestinationUnknown)
		return
	}
	b.sources[e.correlationID] = pendingSource{destination: dest, stream: e.stream}
	b.queue = append(b.queue, corebehavior.BehaviorEvent{
		Kind:   corebehavior.EventHandlerAction,
		Peer:   dest,
		Notify: corebehavior.NotifyOne,
		Action: requestRelayConnect{correlationID: e.correlationID},
	})
	b.mu.Unlock()
}

func (b *Behavior) handleRelayConnectReady(e relayConnectReady) {
	b.mu.Lock()
	src, ok := b.sources[e.correlationID]
	if ok {
		delete(b.sources, e.correlationID)
	}
	b.mu.Unlock()
	if !ok {
		if e.stream != nil {
			e.stream.Close()
		}
		return
	}

	if e.stream == nil {
		b.refuse(src.stream, e.correlationID, ErrDestinationUnknown)
		return
	}

	if err := writeJSON(src.stream, BridgeStatus{CorrelationID: e.correlationID, OK: true}); err != nil {
		src.stream.Close()
		e.stream.Close()
		return
	}
	go splice(src.stream, e.stream)
}

func (b *Behavior) refuse(stream muxing.Stream, correlationID string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	logger.Debug("refusing bridge request", "correlationId", correlationID, "reason", msg)
	_ = writeJSON(stream, BridgeStatus{CorrelationID: correlationID, OK: false, Err: msg})
	stream.Close()
}

func (b *Behavior) Poll(context.Context) (corebehavior.BehaviorEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return corebehavior.BehaviorEvent{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

// splice pumps bytes in both directions between a and b. When one
// direction's source reaches EOF or errors, its destination is
// half-closed (CloseWrite); both streams are closed only once both
// directions have finished.
func splice(a, b muxing.Stream) {
	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(a, b)
		a.CloseWrite()
		done <- err
	}()
	go func() {
		_, err := io.Copy(b, a)
		b.CloseWrite()
		done <- err
	}()
	<-done
	<-done
	a.Close()
	b.Close()
}
