package behavior

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// stubBehavior is a NetworkBehavior whose Poll/event results are set
// directly by the test.
type stubBehavior struct {
	pollEvent  BehaviorEvent
	pollOK     bool
	gotHandler []any
	gotSwarm   []any
}

func (s *stubBehavior) NewHandler(peer.ID, ConnectionKind, ma.Multiaddr) (handler.ConnectionHandler, error) {
	return handler.Dummy{}, nil
}
func (s *stubBehavior) OnHandlerEvent(_ peer.ID, e any) { s.gotHandler = append(s.gotHandler, e) }
func (s *stubBehavior) OnSwarmEvent(e any)              { s.gotSwarm = append(s.gotSwarm, e) }
func (s *stubBehavior) Poll(context.Context) (BehaviorEvent, bool) {
	if !s.pollOK {
		return BehaviorEvent{}, false
	}
	ev := s.pollEvent
	s.pollOK = false
	return ev, true
}

func TestCompose2PollPrefersAThenB(t *testing.T) {
	a := &stubBehavior{pollOK: true, pollEvent: BehaviorEvent{Kind: EventBehavior, Event: "from-a"}}
	b := &stubBehavior{pollOK: true, pollEvent: BehaviorEvent{Kind: EventBehavior, Event: "from-b"}}
	c := Compose2{A: a, B: b}

	ev, ok := c.Poll(context.Background())
	require.True(t, ok)
	require.Equal(t, "from-a", ev.Event)

	ev, ok = c.Poll(context.Background())
	require.True(t, ok)
	require.Equal(t, "from-b", ev.Event)

	_, ok = c.Poll(context.Background())
	require.False(t, ok)
}

func TestCompose2HandlerActionTaggedBySide(t *testing.T) {
	a := &stubBehavior{pollOK: true, pollEvent: BehaviorEvent{Kind: EventHandlerAction, Action: "a-action"}}
	b := &stubBehavior{}
	c := Compose2{A: a, B: b}

	ev, ok := c.Poll(context.Background())
	require.True(t, ok)
	require.Equal(t, EventHandlerAction, ev.Kind)

	tagged, ok := ev.Action.(handler.Either[any, any])
	require.True(t, ok)
	got, _, isB := tagged.Unpack()
	require.False(t, isB)
	require.Equal(t, "a-action", got)
}

func TestCompose2OnHandlerEventRoutesByEither(t *testing.T) {
	a := &stubBehavior{}
	b := &stubBehavior{}
	c := Compose2{A: a, B: b}

	c.OnHandlerEvent(peer.ID{}, handler.Right[any, any]("for-b"))
	require.Equal(t, []any{"for-b"}, b.gotHandler)
	require.Empty(t, a.gotHandler)
}

func TestCompose2OnSwarmEventBroadcastsToBoth(t *testing.T) {
	a := &stubBehavior{}
	b := &stubBehavior{}
	c := Compose2{A: a, B: b}

	c.OnSwarmEvent("tick")
	require.Equal(t, []any{"tick"}, a.gotSwarm)
	require.Equal(t, []any{"tick"}, b.gotSwarm)
}

func TestComposeAllFoldsLeftToRight(t *testing.T) {
	combined := ComposeAll(Dummy{}, Dummy{}, Dummy{})
	h, err := combined.NewHandler(peer.ID{}, Incoming, nil)
	require.NoError(t, err)
	require.NotNil(t, h)

	_, ok := combined.Poll(context.Background())
	require.False(t, ok)
}

func TestComposeAllPanicsOnEmpty(t *testing.T) {
	require.Panics(t, func() { ComposeAll() })
}
