package bridge

import (
	"go.uber.org/fx"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
)

// Module provides a *Behavior as both a corebehavior.NetworkBehavior
// value in the "behaviors" group and a *Behavior in its own right, so
// an embedder can call Connect directly instead of only reacting to
// InboundBridged events.
func Module() fx.Option {
	return fx.Module("bridge",
		fx.Provide(
			DefaultConfig,
			NewFromConfig,
			fx.Annotate(
				func(b *Behavior) corebehavior.NetworkBehavior { return b },
				fx.ResultTags(`group:"behaviors"`),
			),
		),
	)
}
