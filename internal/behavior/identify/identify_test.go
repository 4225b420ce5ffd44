package identify

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/internal/core/handler"
)

type pipeStream struct{ net.Conn }

// CloseWrite is a no-op: net.Pipe has no half-close, and closing the
// whole pipe would cut off the reply runExchange reads after CloseWrite.
func (p pipeStream) CloseWrite() error { return nil }

func TestMessageRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		_ = writeMessage(client, Message{ListenAddrs: []string{"/ip4/127.0.0.1/tcp/4001"}, ProtocolVersion: ProtocolVersion})
	}()

	msg, err := readMessage(bufio.NewReader(server))
	require.NoError(t, err)
	require.Equal(t, ProtocolVersion, msg.ProtocolVersion)
	require.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001"}, msg.ListenAddrs)
}

func TestHandlerExchangesListenAddrs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Second

	hA := NewHandler(cfg, func() Message {
		return Message{ListenAddrs: []string{"/ip4/1.2.3.4/tcp/1"}, ProtocolVersion: ProtocolVersion}
	})
	hB := NewHandler(cfg, func() Message {
		return Message{ListenAddrs: []string{"/ip4/5.6.7.8/tcp/2"}, ProtocolVersion: ProtocolVersion}
	})

	client, server := net.Pipe()

	hA.OnConnectionEvent(handler.FullyNegotiatedOutbound{Protocol: ProtocolID, Stream: pipeStream{client}})
	hB.OnConnectionEvent(handler.FullyNegotiatedInbound{Protocol: ProtocolID, Stream: pipeStream{server}})

	require.Eventually(t, func() bool {
		ev, ok := hA.Poll(nil)
		if !ok {
			return false
		}
		custom, ok := ev.(handler.Custom)
		if !ok {
			return false
		}
		r := custom.Event.(Result)
		require.NoError(t, r.Err)
		require.Equal(t, []string{"/ip4/5.6.7.8/tcp/2"}, r.Info.ListenAddrs)
		return true
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		ev, ok := hB.Poll(nil)
		return ok && func() bool { _, isCustom := ev.(handler.Custom); return isCustom }()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerRequestsOutboundImmediatelyThenWaitsWhilePending(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHandler(cfg, func() Message { return Message{} })

	ev, ok := h.Poll(nil)
	require.True(t, ok)
	req, ok := ev.(handler.OutboundSubstreamRequest)
	require.True(t, ok)
	require.Equal(t, []string{ProtocolID}, req.Protocol.Protocols)

	_, ok = h.Poll(nil)
	require.False(t, ok, "handler must not request a second outbound substream while one is pending")
}
