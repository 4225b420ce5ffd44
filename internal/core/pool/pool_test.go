package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// noopMuxer is a muxing.StreamMuxer that never produces streams, enough
// to let a connection.Connection run without a real transport.
type noopMuxer struct{ closed chan struct{} }

func newNoopMuxer() *noopMuxer { return &noopMuxer{closed: make(chan struct{})} }

func (m *noopMuxer) AcceptStream() (muxing.Stream, error) {
	<-m.closed
	return nil, errors.New("muxer closed")
}
func (m *noopMuxer) OpenStream() (muxing.Stream, error) { return nil, errors.New("not supported") }
func (m *noopMuxer) Close() error {
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	return nil
}
func (m *noopMuxer) CloseGraceful() error { return m.Close() }
func (m *noopMuxer) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

type stubDialTransport struct {
	result transport.Result[transport.EstablishedOutput]
	err    error
}

func (s stubDialTransport) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan transport.Result[transport.EstablishedOutput], error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan transport.Result[transport.EstablishedOutput], 1)
	ch <- s.result
	return ch, nil
}

func (s stubDialTransport) Listen(ma.Multiaddr) (transport.Listener[transport.EstablishedOutput], error) {
	return nil, errors.New("not implemented")
}

func testAddr(t *testing.T) ma.Multiaddr {
	t.Helper()
	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)
	return addr
}

func testPeer(fill byte) peer.ID {
	var id peer.ID
	for i := range id {
		id[i] = fill + byte(i)
	}
	return id
}

func newHandlerFunc(peer.ID, behavior.ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return handler.Dummy{}, nil
}

func drainUntil[T any](t *testing.T, events <-chan Event, match func(Event) (T, bool)) T {
	t.Helper()
	for {
		select {
		case ev := <-events:
			if v, ok := match(ev); ok {
				return v
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for matching event")
		}
	}
}

func TestDialWrongPeerIDIsRejected(t *testing.T) {
	wantPeer := testPeer(1)
	gotPeer := testPeer(2)
	mux := newNoopMuxer()

	tr := stubDialTransport{result: transport.Result[transport.EstablishedOutput]{
		Output: transport.EstablishedOutput{PeerID: gotPeer, Muxer: mux},
	}}
	p := New(tr, newHandlerFunc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	addr := testAddr(t)
	p.Commands() <- Dial{Addr: addr, Expected: wantPeer}

	failed := drainUntil(t, p.Events(), func(ev Event) (DialFailed, bool) {
		f, ok := ev.(DialFailed)
		return f, ok
	})
	require.ErrorIs(t, failed.Err, transport.ErrPeerIDMismatch)
	require.True(t, mux.IsClosed(), "mismatched muxer must be closed")
}

func TestDialEstablishesAndDisconnectCloses(t *testing.T) {
	wantPeer := testPeer(3)
	mux := newNoopMuxer()

	tr := stubDialTransport{result: transport.Result[transport.EstablishedOutput]{
		Output: transport.EstablishedOutput{PeerID: wantPeer, Muxer: mux},
	}}
	p := New(tr, newHandlerFunc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	addr := testAddr(t)
	p.Commands() <- Dial{Addr: addr}

	est := drainUntil(t, p.Events(), func(ev Event) (ConnectionEstablished, bool) {
		e, ok := ev.(ConnectionEstablished)
		return e, ok
	})
	require.Equal(t, wantPeer, est.Peer)
	require.Equal(t, behavior.Outgoing, est.Kind)

	p.Commands() <- Disconnect{Peer: wantPeer}

	closedEv := drainUntil(t, p.Events(), func(ev Event) (ConnectionClosed, bool) {
		c, ok := ev.(ConnectionClosed)
		return c, ok
	})
	require.Equal(t, wantPeer, closedEv.Peer)
	require.True(t, mux.IsClosed())
}

func TestAcceptEstablishesIncomingConnection(t *testing.T) {
	wantPeer := testPeer(4)
	mux := newNoopMuxer()
	tr := stubDialTransport{}
	p := New(tr, newHandlerFunc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	addr := testAddr(t)
	p.Accept(ctx, wantPeer, mux, addr)

	est := drainUntil(t, p.Events(), func(ev Event) (ConnectionEstablished, bool) {
		e, ok := ev.(ConnectionEstablished)
		return e, ok
	})
	require.Equal(t, behavior.Incoming, est.Kind)
	require.Equal(t, wantPeer, est.Peer)
}

func TestDialTransportErrorReportsDialFailed(t *testing.T) {
	boom := errors.New("boom")
	tr := stubDialTransport{err: boom}
	p := New(tr, newHandlerFunc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	addr := testAddr(t)
	p.Commands() <- Dial{Addr: addr}

	failed := drainUntil(t, p.Events(), func(ev Event) (DialFailed, bool) {
		f, ok := ev.(DialFailed)
		return f, ok
	})
	require.ErrorIs(t, failed.Err, boom)
}

func TestShutdownOnContextCancelClosesConnections(t *testing.T) {
	wantPeer := testPeer(5)
	mux := newNoopMuxer()
	tr := stubDialTransport{result: transport.Result[transport.EstablishedOutput]{
		Output: transport.EstablishedOutput{PeerID: wantPeer, Muxer: mux},
	}}
	p := New(tr, newHandlerFunc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	addr := testAddr(t)
	p.Commands() <- Dial{Addr: addr}
	drainUntil(t, p.Events(), func(ev Event) (ConnectionEstablished, bool) {
		e, ok := ev.(ConnectionEstablished)
		return e, ok
	})

	cancel()
	require.Eventually(t, mux.IsClosed, 2*time.Second, 10*time.Millisecond)
}
