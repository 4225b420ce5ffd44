package swarm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/internal/core/behavior"
	ct "github.com/cariers/volans/internal/core/transport"
	sw "github.com/cariers/volans/internal/core/swarm"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

func randomPeer(t *testing.T, salt byte) peer.ID {
	t.Helper()
	var id peer.ID
	for i := range id {
		id[i] = byte(i + 1)
	}
	id[0] += salt
	return id
}

func waitEvent[T any](t *testing.T, events <-chan sw.Event, timeout time.Duration) T {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func newSwarm(t *testing.T, local peer.ID) (*sw.Swarm, *ct.Stack) {
	t.Helper()
	stack := ct.NewStack(local, ct.NewConfig())
	t.Cleanup(func() { stack.Close() })

	s, err := sw.New(local, stack.Transport, behavior.Dummy{})
	require.NoError(t, err)
	return s, stack
}

func TestSwarmDialListenEstablishesConnectionBothSides(t *testing.T) {
	serverPeer := randomPeer(t, 0)
	clientPeer := randomPeer(t, 1)

	server, _ := newSwarm(t, serverPeer)
	client, _ := newSwarm(t, clientPeer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)
	go client.Run(ctx)

	listenAddr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	_, err = server.Listen(listenAddr)
	require.NoError(t, err)

	boundAddr := waitEvent[sw.NewListenAddr](t, server.Events(), 2*time.Second).Addr

	err = client.Dial(sw.NewDialOpts(boundAddr, serverPeer))
	require.NoError(t, err)

	clientEstablished := waitEvent[sw.ConnectionEstablished](t, client.Events(), 2*time.Second)
	require.Equal(t, serverPeer, clientEstablished.Peer)
	require.Equal(t, behavior.Outgoing, clientEstablished.Kind)

	serverEstablished := waitEvent[sw.ConnectionEstablished](t, server.Events(), 2*time.Second)
	require.Equal(t, clientPeer, serverEstablished.Peer)
	require.Equal(t, behavior.Incoming, serverEstablished.Kind)

	require.True(t, client.IsConnected(serverPeer))
	require.True(t, server.IsConnected(clientPeer))
}

func TestSwarmDialRejectsSelf(t *testing.T) {
	local := randomPeer(t, 0)
	s, _ := newSwarm(t, local)

	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)
	err = s.Dial(sw.NewDialOpts(addr, local))
	require.ErrorIs(t, err, sw.ErrDialToSelf)
}

func TestSwarmDialConditionDisconnectedSkipsAlreadyConnectedPeer(t *testing.T) {
	serverPeer := randomPeer(t, 0)
	clientPeer := randomPeer(t, 1)

	server, _ := newSwarm(t, serverPeer)
	client, _ := newSwarm(t, clientPeer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)
	go client.Run(ctx)

	listenAddr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	_, err = server.Listen(listenAddr)
	require.NoError(t, err)
	boundAddr := waitEvent[sw.NewListenAddr](t, server.Events(), 2*time.Second).Addr

	require.NoError(t, client.Dial(sw.NewDialOpts(boundAddr, serverPeer)))
	waitEvent[sw.ConnectionEstablished](t, client.Events(), 2*time.Second)

	err = client.Dial(sw.NewDialOpts(boundAddr, serverPeer).WithCondition(sw.ConditionDisconnected))
	var condErr *sw.PeerConditionError
	require.ErrorAs(t, err, &condErr)
	require.Equal(t, sw.ConditionDisconnected, condErr.Condition)
}

func TestSwarmDialFailureReportsOutgoingConnectionError(t *testing.T) {
	client, _ := newSwarm(t, randomPeer(t, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	addr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/1")
	require.NoError(t, err)
	require.NoError(t, client.Dial(sw.NewDialOpts(addr, peer.ID{})))

	ev := waitEvent[sw.OutgoingConnectionError](t, client.Events(), 2*time.Second)
	require.Error(t, ev.Err)
}

func TestSwarmRemoveListenerClosesIt(t *testing.T) {
	server, _ := newSwarm(t, randomPeer(t, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)

	listenAddr, err := ma.NewMultiaddr("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	id, err := server.Listen(listenAddr)
	require.NoError(t, err)
	waitEvent[sw.NewListenAddr](t, server.Events(), 2*time.Second)

	require.True(t, server.RemoveListener(id))
	waitEvent[sw.ListenerClosed](t, server.Events(), 2*time.Second)
	require.False(t, server.RemoveListener(id))
}
