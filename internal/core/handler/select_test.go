package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubHandler is a minimal ConnectionHandler whose return values are set
// directly by the test, with no concurrency of its own.
type stubHandler struct {
	listen     SubstreamProtocol
	keepAlive  bool
	pollEvent  HandlerEvent
	pollOK     bool
	gotEvents  []ConnectionEvent
	gotActions []any
}

func (s *stubHandler) ListenProtocol() SubstreamProtocol { return s.listen }
func (s *stubHandler) OnConnectionEvent(e ConnectionEvent) {
	s.gotEvents = append(s.gotEvents, e)
}
func (s *stubHandler) OnBehaviorAction(a any) { s.gotActions = append(s.gotActions, a) }
func (s *stubHandler) Poll(context.Context) (HandlerEvent, bool) {
	if !s.pollOK {
		return nil, false
	}
	ev := s.pollEvent
	s.pollOK = false
	return ev, true
}
func (s *stubHandler) KeepAlive() bool { return s.keepAlive }

// TestSelectKeepAliveIsLogicalOr is the named §8 testable property:
// Select.KeepAlive must be true whenever either side wants to stay
// alive, and false only when both agree to let the connection close.
func TestSelectKeepAliveIsLogicalOr(t *testing.T) {
	cases := []struct {
		a, b, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, c := range cases {
		sel := Select{A: &stubHandler{keepAlive: c.a}, B: &stubHandler{keepAlive: c.b}}
		require.Equal(t, c.want, sel.KeepAlive(), "A=%v B=%v", c.a, c.b)
	}
}

func TestSelectListenProtocolConcatenates(t *testing.T) {
	a := &stubHandler{listen: SubstreamProtocol{Protocols: []string{"/a/1.0.0"}}}
	b := &stubHandler{listen: SubstreamProtocol{Protocols: []string{"/b/1.0.0"}}}
	sel := Select{A: a, B: b}

	got := sel.ListenProtocol()
	require.Equal(t, []string{"/a/1.0.0", "/b/1.0.0"}, got.Protocols)
}

func TestSelectRoutesInboundByProtocol(t *testing.T) {
	a := &stubHandler{listen: SubstreamProtocol{Protocols: []string{"/a/1.0.0"}}}
	b := &stubHandler{listen: SubstreamProtocol{Protocols: []string{"/b/1.0.0"}}}
	sel := Select{A: a, B: b}

	sel.OnConnectionEvent(FullyNegotiatedInbound{Protocol: "/b/1.0.0"})
	require.Len(t, b.gotEvents, 1)
	require.Empty(t, a.gotEvents)
}

func TestSelectPollTagsOutboundRequestSide(t *testing.T) {
	a := &stubHandler{pollOK: true, pollEvent: OutboundSubstreamRequest{
		Protocol: SubstreamProtocol{Protocols: []string{"/a/1.0.0"}, Info: "a-info"},
	}}
	b := &stubHandler{}
	sel := Select{A: a, B: b}

	ev, ok := sel.Poll(context.Background())
	require.True(t, ok)
	req, ok := ev.(OutboundSubstreamRequest)
	require.True(t, ok)

	info, ok := req.Protocol.Info.(Either[any, any])
	require.True(t, ok)
	got, _, isB := info.Unpack()
	require.False(t, isB)
	require.Equal(t, "a-info", got)

	sel.OnConnectionEvent(FullyNegotiatedOutbound{Protocol: "/a/1.0.0", Info: req.Protocol.Info})
	require.Len(t, a.gotEvents, 1)
	fo := a.gotEvents[0].(FullyNegotiatedOutbound)
	require.Equal(t, "a-info", fo.Info)
}

func TestSelectOnBehaviorActionRoutesByEither(t *testing.T) {
	a := &stubHandler{}
	b := &stubHandler{}
	sel := Select{A: a, B: b}

	sel.OnBehaviorAction(Right[any, any]("for-b"))
	require.Equal(t, []any{"for-b"}, b.gotActions)
	require.Empty(t, a.gotActions)
}
