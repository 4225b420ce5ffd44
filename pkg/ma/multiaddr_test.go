package ma

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/pkg/peer"
)

func TestHumanFormRoundTrip(t *testing.T) {
	cases := []string{
		"/ip4/127.0.0.1/tcp/4001",
		"/ip6/::1/tcp/4001",
		"/ip4/1.2.3.4/tcp/4001/ws",
		"/dns4/example.com/tcp/443/tls/ws",
		"/ip4/1.2.3.4/udp/1234/quic",
		"/memory/42",
	}
	for _, s := range cases {
		s := s
		t.Run(s, func(t *testing.T) {
			m, err := NewMultiaddr(s)
			require.NoError(t, err)
			require.Equal(t, s, m.String())
		})
	}
}

func TestBytesRoundTrip(t *testing.T) {
	m, err := NewMultiaddr("/ip4/10.0.0.1/tcp/9000")
	require.NoError(t, err)

	m2, err := NewMultiaddrBytes(m.Bytes())
	require.NoError(t, err)
	require.True(t, m.Equal(m2))
	require.Equal(t, m.String(), m2.String())
}

func TestPeerComponentRoundTrip(t *testing.T) {
	var id peer.ID
	for i := range id {
		id[i] = byte(i + 1)
	}
	base, err := NewMultiaddr("/ip4/127.0.0.1/tcp/4001")
	require.NoError(t, err)

	withPeer, err := base.WithPeer(id.Bytes())
	require.NoError(t, err)

	protos, err := withPeer.Protocols()
	require.NoError(t, err)
	require.Len(t, protos, 3)
	require.Equal(t, CodePeer, protos[2].Code)

	got, err := peer.FromBytes(protos[2].Value)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestCircuitSplit(t *testing.T) {
	var relayID, dstID peer.ID
	for i := range relayID {
		relayID[i] = byte(i + 1)
		dstID[i] = byte(i + 100)
	}
	s := "/ip4/1.2.3.4/tcp/4001/peer/" + relayID.String() + "/circuit/peer/" + dstID.String()
	m, err := NewMultiaddr(s)
	require.NoError(t, err)
	require.True(t, m.IsCircuit())

	relay, dst, ok := m.SplitCircuit()
	require.True(t, ok)
	require.Equal(t, CodePeer, dst.Code)
	gotDst, err := peer.FromBytes(dst.Value)
	require.NoError(t, err)
	require.Equal(t, dstID, gotDst)

	relayProtos, err := relay.Protocols()
	require.NoError(t, err)
	require.Len(t, relayProtos, 3)
	require.Equal(t, CodePeer, relayProtos[2].Code)
}

func TestMultipleCircuitComponentsRejected(t *testing.T) {
	var id peer.ID
	s := "/ip4/1.2.3.4/tcp/4001/circuit/circuit/peer/" + id.String()
	_, err := NewMultiaddr(s)
	require.ErrorIs(t, err, ErrMultipleCircuit)
}

func TestInvalidMultiaddrMissingLeadingSlash(t *testing.T) {
	_, err := NewMultiaddr("ip4/1.2.3.4")
	require.ErrorIs(t, err, ErrInvalidMultiaddr)
}

func TestUnknownProtocolTagRejected(t *testing.T) {
	_, err := NewMultiaddr("/bogus/123")
	require.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestEncapsulate(t *testing.T) {
	a, err := NewMultiaddr("/ip4/1.2.3.4/tcp/4001")
	require.NoError(t, err)
	b, err := NewMultiaddr("/ws")
	require.NoError(t, err)
	joined := a.Encapsulate(b)
	require.Equal(t, "/ip4/1.2.3.4/tcp/4001/ws", joined.String())
}

func TestEmptyMultiaddr(t *testing.T) {
	m, err := NewMultiaddr("")
	require.NoError(t, err)
	require.True(t, m.Empty())
	require.Equal(t, 0, m.Len())
}
