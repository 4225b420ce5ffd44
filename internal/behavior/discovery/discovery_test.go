package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddrToMultiaddrIPv4(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("192.168.1.42"), Port: 5353}
	m, err := addrToMultiaddr(addr, 4001)
	require.NoError(t, err)
	require.Equal(t, "/ip4/192.168.1.42/tcp/4001", m.String())
}

func TestAddrToMultiaddrIPv6(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("fe80::1"), Port: 5353}
	m, err := addrToMultiaddr(addr, 4001)
	require.NoError(t, err)
	require.Equal(t, "/ip6/fe80::1/tcp/4001", m.String())
}

func TestBehaviorPollDrainsFoundPeersInOrder(t *testing.T) {
	b := NewFromConfig(DefaultConfig())

	a1, _ := addrToMultiaddr(&net.UDPAddr{IP: net.ParseIP("10.0.0.1")}, 4001)
	a2, _ := addrToMultiaddr(&net.UDPAddr{IP: net.ParseIP("10.0.0.2")}, 4001)
	b.found = append(b.found, FoundPeer{Addr: a1}, FoundPeer{Addr: a2})

	ev, ok := b.Poll(nil)
	require.True(t, ok)
	fp := ev.Event.(FoundPeer)
	require.Equal(t, "/ip4/10.0.0.1/tcp/4001", fp.Addr.String())

	ev, ok = b.Poll(nil)
	require.True(t, ok)
	fp = ev.Event.(FoundPeer)
	require.Equal(t, "/ip4/10.0.0.2/tcp/4001", fp.Addr.String())

	_, ok = b.Poll(nil)
	require.False(t, ok)
}
