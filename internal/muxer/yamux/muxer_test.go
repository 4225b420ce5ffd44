package yamux

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newSessionPair(t *testing.T) (*Muxer, *Muxer) {
	t.Helper()
	client, server := net.Pipe()
	cfg := DefaultConfig()

	c, err := NewClient(client, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	s, err := NewServer(server, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return c, s
}

func TestOpenAcceptRoundTrip(t *testing.T) {
	client, server := newSessionPair(t)

	acceptErr := make(chan error, 1)
	var accepted interface{ Read([]byte) (int, error) }
	go func() {
		s, err := server.AcceptStream()
		accepted = s
		acceptErr <- err
	}()

	out, err := client.OpenStream()
	require.NoError(t, err)

	const msg = "hello over yamux"
	go func() {
		_, werr := out.Write([]byte(msg))
		require.NoError(t, werr)
	}()

	require.NoError(t, <-acceptErr)
	buf := make([]byte, len(msg))
	_, err = io.ReadFull(accepted.(io.Reader), buf)
	require.NoError(t, err)
	require.Equal(t, msg, string(buf))
}

func TestCloseWriteHalfCloses(t *testing.T) {
	client, server := newSessionPair(t)

	acceptErr := make(chan error, 1)
	acceptedCh := make(chan io.ReadWriteCloser, 1)
	go func() {
		s, err := server.AcceptStream()
		acceptedCh <- s
		acceptErr <- err
	}()

	out, err := client.OpenStream()
	require.NoError(t, err)

	_, err = out.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, out.CloseWrite())

	require.NoError(t, <-acceptErr)
	accepted := <-acceptedCh
	buf := make([]byte, 16)
	n, err := accepted.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "x", string(buf[:n]))

	n, err = accepted.Read(buf)
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestCloseGracefulRefusesNewStreamsThenClosesOnTeardown(t *testing.T) {
	client, server := newSessionPair(t)

	done := make(chan error, 1)
	go func() { done <- server.CloseGraceful() }()

	// GoAway is sent immediately; the client must see new OpenStream
	// calls refused even though the session itself stays up.
	require.Eventually(t, func() bool {
		_, err := client.OpenStream()
		return err != nil
	}, time.Second, 10*time.Millisecond)

	// CloseGraceful blocks on the session's own teardown; closing the
	// client's side tears down the pipe and lets it return.
	require.NoError(t, client.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("CloseGraceful did not return after session teardown")
	}
	require.True(t, server.IsClosed())
}
