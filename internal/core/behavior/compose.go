package behavior

import (
	"context"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"
)

// Compose2 combines two NetworkBehaviors into one aggregate, the Go
// stand-in for the original's #[derive(NetworkBehavior)] macro (Go has
// no hygienic macros to generate this field-wise). Handlers are
// combined with handler.Select; events and handler actions are tagged
// with handler.Either so OnHandlerEvent/OnBehaviorAction route to the
// originating side. Compose nested Compose2 values to aggregate more
// than two behaviors.
type Compose2 struct {
	A, B NetworkBehavior
}

func (c Compose2) NewHandler(p peer.ID, kind ConnectionKind, addr ma.Multiaddr) (handler.ConnectionHandler, error) {
	ha, err := c.A.NewHandler(p, kind, addr)
	if err != nil {
		return nil, err
	}
	hb, err := c.B.NewHandler(p, kind, addr)
	if err != nil {
		return nil, err
	}
	return handler.Select{A: ha, B: hb}, nil
}

func (c Compose2) OnHandlerEvent(p peer.ID, event any) {
	if e, ok := event.(handler.Either[any, any]); ok {
		a, b, isB := e.Unpack()
		if isB {
			c.B.OnHandlerEvent(p, b)
		} else {
			c.A.OnHandlerEvent(p, a)
		}
		return
	}
	c.A.OnHandlerEvent(p, event)
}

func (c Compose2) OnSwarmEvent(event any) {
	c.A.OnSwarmEvent(event)
	c.B.OnSwarmEvent(event)
}

func (c Compose2) Poll(ctx context.Context) (BehaviorEvent, bool) {
	if ev, ok := c.A.Poll(ctx); ok {
		if ev.Kind == EventHandlerAction {
			ev.Action = handler.Left[any, any](ev.Action)
		}
		return ev, true
	}
	if ev, ok := c.B.Poll(ctx); ok {
		if ev.Kind == EventHandlerAction {
			ev.Action = handler.Right[any, any](ev.Action)
		}
		return ev, true
	}
	return BehaviorEvent{}, false
}

// ComposeAll folds a non-empty slice of behaviors into one aggregate
// using Compose2, left-to-right.
func ComposeAll(behaviors ...NetworkBehavior) NetworkBehavior {
	if len(behaviors) == 0 {
		panic("behavior: ComposeAll requires at least one behavior")
	}
	out := behaviors[0]
	for _, b := range behaviors[1:] {
		out = Compose2{A: out, B: b}
	}
	return out
}
