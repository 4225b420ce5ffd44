package connection

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/streamselect"
	"github.com/cariers/volans/pkg/peer"
)

// pipeStream adapts a net.Conn (from net.Pipe) into a muxing.Stream for
// tests that need real multistream-select bytes flowing both ways.
// CloseWrite is not a true half-close over net.Pipe; it closes the whole
// pipe, which is adequate for exercising negotiation in isolation.
type pipeStream struct{ net.Conn }

func (p pipeStream) CloseWrite() error { return p.Close() }

// fakeMuxer feeds pre-built streams to AcceptStream/OpenStream under test
// control instead of multiplexing a real transport connection.
type fakeMuxer struct {
	accept chan muxing.Stream
	open   chan muxing.Stream
	closed chan struct{}
}

func newFakeMuxer() *fakeMuxer {
	return &fakeMuxer{
		accept: make(chan muxing.Stream, 1),
		open:   make(chan muxing.Stream, 1),
		closed: make(chan struct{}),
	}
}

func (m *fakeMuxer) AcceptStream() (muxing.Stream, error) {
	select {
	case s := <-m.accept:
		return s, nil
	case <-m.closed:
		return nil, net.ErrClosed
	}
}

func (m *fakeMuxer) OpenStream() (muxing.Stream, error) {
	select {
	case s := <-m.open:
		return s, nil
	case <-m.closed:
		return nil, net.ErrClosed
	}
}

func (m *fakeMuxer) Close() error {
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
	return nil
}
func (m *fakeMuxer) CloseGraceful() error { return m.Close() }
func (m *fakeMuxer) IsClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// recordingHandler is a handler.ConnectionHandler whose behavior is
// driven entirely by test-supplied channels, recording every
// OnConnectionEvent it receives.
type recordingHandler struct {
	listen    handler.SubstreamProtocol
	pollEvent chan handler.HandlerEvent
	events    chan handler.ConnectionEvent
	keepAlive bool
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		pollEvent: make(chan handler.HandlerEvent, 4),
		events:    make(chan handler.ConnectionEvent, 4),
	}
}

func (h *recordingHandler) ListenProtocol() handler.SubstreamProtocol { return h.listen }
func (h *recordingHandler) OnConnectionEvent(e handler.ConnectionEvent) { h.events <- e }
func (h *recordingHandler) OnBehaviorAction(any)                       {}
func (h *recordingHandler) KeepAlive() bool                            { return h.keepAlive }

func (h *recordingHandler) Poll(context.Context) (handler.HandlerEvent, bool) {
	select {
	case e := <-h.pollEvent:
		return e, true
	default:
		return nil, false
	}
}

func testPeerID(fill byte) peer.ID {
	var id peer.ID
	for i := range id {
		id[i] = fill + byte(i)
	}
	return id
}

// TestInboundSubstreamNegotiation exercises the Inbound half of the §4.4
// poll-order contract: a stream handed to AcceptStream is negotiated
// against the handler's ListenProtocol and delivered as
// FullyNegotiatedInbound before anything else happens to it.
func TestInboundSubstreamNegotiation(t *testing.T) {
	h := newRecordingHandler()
	h.listen = handler.SubstreamProtocol{Protocols: []string{"/test/1.0.0"}}

	mux := newFakeMuxer()
	conn := New(NewID(), testPeerID(1), mux, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	client, server := net.Pipe()
	mux.accept <- pipeStream{server}

	dialErr := make(chan error, 1)
	go func() {
		n, err := streamselect.DialerSelect(pipeStream{client}, []string{"/test/1.0.0"})
		if err == nil {
			// Read the listener's confirmation; over the unbuffered pipe
			// the connection's ListenerSelect blocks until it is read.
			err = n.Complete()
		}
		dialErr <- err
	}()

	select {
	case ev := <-h.events:
		fi, ok := ev.(handler.FullyNegotiatedInbound)
		require.True(t, ok, "expected FullyNegotiatedInbound, got %T", ev)
		require.Equal(t, "/test/1.0.0", fi.Protocol)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FullyNegotiatedInbound")
	}
	require.NoError(t, <-dialErr)
}

// TestOutboundSubstreamNegotiation exercises the Outbound half: a
// handler-requested OutboundSubstreamRequest drives an OpenStream call
// and a dialer-side negotiation, delivered back as
// FullyNegotiatedOutbound.
func TestOutboundSubstreamNegotiation(t *testing.T) {
	h := newRecordingHandler()
	mux := newFakeMuxer()
	conn := New(NewID(), testPeerID(2), mux, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	client, server := net.Pipe()
	mux.open <- pipeStream{client}

	listenErr := make(chan error, 1)
	go func() {
		_, err := streamselect.ListenerSelect(pipeStream{server}, []string{"/test/1.0.0"})
		listenErr <- err
	}()

	h.pollEvent <- handler.OutboundSubstreamRequest{
		Protocol: handler.SubstreamProtocol{Protocols: []string{"/test/1.0.0"}, Info: "ping"},
	}

	select {
	case ev := <-h.events:
		fo, ok := ev.(handler.FullyNegotiatedOutbound)
		require.True(t, ok, "expected FullyNegotiatedOutbound, got %T", ev)
		require.Equal(t, "/test/1.0.0", fo.Protocol)
		require.Equal(t, "ping", fo.Info)
		// The dialer side is still Expecting; completing it reads the
		// listener's confirmation so ListenerSelect can return.
		require.NoError(t, fo.Stream.(negotiatedStream).Complete())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FullyNegotiatedOutbound")
	}
	require.NoError(t, <-listenErr)
}

// TestCloseCommandShutsDownWithoutKeepAlive exercises the ShutdownAsap
// path: once the handler reports no KeepAlive and no streams are
// in-flight, a CloseCommand must be followed promptly by a ClosedEvent.
func TestCloseCommandShutsDownWithoutKeepAlive(t *testing.T) {
	h := newRecordingHandler()
	h.keepAlive = false
	mux := newFakeMuxer()
	conn := New(NewID(), testPeerID(3), mux, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	conn.Commands() <- CloseCommand{}

	select {
	case ev := <-conn.Events():
		_, ok := ev.(ClosedEvent)
		require.True(t, ok, "expected ClosedEvent, got %T", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ClosedEvent after CloseCommand")
	}
	require.True(t, mux.IsClosed())
}

// TestKeepAliveHandlerBlocksShutdown verifies a handler reporting
// KeepAlive keeps the connection open across a CloseCommand until the
// context itself is cancelled.
func TestKeepAliveHandlerBlocksShutdown(t *testing.T) {
	h := newRecordingHandler()
	h.keepAlive = true
	mux := newFakeMuxer()
	conn := New(NewID(), testPeerID(4), mux, h)

	ctx, cancel := context.WithCancel(context.Background())
	go conn.Run(ctx)

	conn.Commands() <- CloseCommand{}

	select {
	case ev := <-conn.Events():
		t.Fatalf("connection closed early despite KeepAlive: %#v", ev)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	select {
	case ev := <-conn.Events():
		_, ok := ev.(ClosedEvent)
		require.True(t, ok, "expected ClosedEvent, got %T", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ClosedEvent after context cancel")
	}
}
