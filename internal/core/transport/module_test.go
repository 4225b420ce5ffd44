package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ct "github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

func randomPeer(t *testing.T) peer.ID {
	t.Helper()
	var id peer.ID
	for i := range id {
		id[i] = byte(i + 1)
	}
	return id
}

func TestStackDialListenEstablishesMuxedSession(t *testing.T) {
	cfg := ct.NewConfig()
	serverPeer := randomPeer(t)
	clientPeer := serverPeer
	clientPeer[0]++

	server := ct.NewStack(serverPeer, cfg)
	defer server.Close()

	listenAddr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	ln, err := server.Transport.Listen(listenAddr)
	require.NoError(t, err)
	defer ln.Close()

	events := ln.Events()
	newAddrEv := <-events
	require.Equal(t, ct.EventNewAddress, newAddrEv.Kind)
	boundAddr := newAddrEv.Addr

	client := ct.NewStack(clientPeer, cfg)
	defer client.Close()

	dialCh, err := client.Transport.Dial(context.Background(), boundAddr)
	require.NoError(t, err)

	incomingEv := <-events
	require.Equal(t, ct.EventIncoming, incomingEv.Kind)

	serverResult := <-incomingEv.Upgrade
	clientResult := <-dialCh

	require.NoError(t, serverResult.Err)
	require.NoError(t, clientResult.Err)
	require.Equal(t, clientPeer, serverResult.Output.PeerID)
	require.Equal(t, serverPeer, clientResult.Output.PeerID)

	clientStream, err := clientResult.Output.Muxer.OpenStream()
	require.NoError(t, err)
	_, err = clientStream.Write([]byte("ping"))
	require.NoError(t, err)

	serverStream, err := serverResult.Output.Muxer.AcceptStream()
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = serverStream.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))
}

func TestStackDialTimesOutAgainstDeadAddress(t *testing.T) {
	cfg := ct.NewConfig()
	cfg.DialTimeout = 50 * time.Millisecond
	client := ct.NewStack(randomPeer(t), cfg)
	defer client.Close()

	addr, err := ma.NewMultiaddr("/ip4/10.255.255.1/tcp/1")
	require.NoError(t, err)
	ch, err := client.Transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	r := <-ch
	require.Error(t, r.Err)
}
