package streamselect

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDialerListenerHappyPath(t *testing.T) {
	// Scenario 1 (SPEC_FULL.md §8): dialer candidates ["/v1/ping",
	// "/v1/muxing"], listener supports {"/v1/muxing"}. Expected: dialer
	// offers /v1/ping, listener replies na, dialer offers /v1/muxing,
	// listener accepts.
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct {
		neg *Negotiated
		err error
	}, 1)
	go func() {
		neg, err := ListenerSelect(server, []string{"/v1/muxing"})
		done <- struct {
			neg *Negotiated
			err error
		}{neg, err}
	}()

	dialerNeg, err := DialerSelect(client, []string{"/v1/ping", "/v1/muxing"})
	require.NoError(t, err)
	require.Equal(t, "/v1/muxing", dialerNeg.Protocol())
	// The last candidate is sent optimistically; reading the listener's
	// confirmation completes the dialer side and unblocks the listener's
	// write over the unbuffered pipe.
	require.NoError(t, dialerNeg.Complete())

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.Equal(t, "/v1/muxing", res.neg.Protocol())
	case <-time.After(2 * time.Second):
		t.Fatal("listener select did not complete")
	}
}

func TestDialerSelectNoCommonProtocol(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := ListenerSelect(server, []string{"/v1/other"})
		errCh <- err
	}()

	// A single candidate is sent optimistically, so the refusal surfaces
	// when the dialer side completes, not from DialerSelect itself.
	neg, err := DialerSelect(client, []string{"/v1/ping"})
	require.NoError(t, err)
	require.ErrorIs(t, neg.Complete(), ErrNegotiationFailed)
	client.Close()
	<-errCh
}

func TestLengthDelimitedRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payloads := [][]byte{{}, []byte("x"), make([]byte, 4096)}

	go func() {
		w := NewLengthDelimited(server)
		for _, p := range payloads {
			_ = w.WriteFrame(p)
		}
	}()

	r := NewLengthDelimited(client)
	for _, want := range payloads {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Message{
		{Protocol: "/v1/ping"},
		{NotAvailable: true},
	}
	for _, m := range cases {
		b, err := Encode(m)
		require.NoError(t, err)
		got, err := Decode(b)
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}
