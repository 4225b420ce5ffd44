package ping

import (
	"go.uber.org/fx"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
)

// Module provides a *Behavior, exposed as a corebehavior.NetworkBehavior
// value in the "behaviors" group, the same fx.Module/group wiring
// pattern the teacher used for its own protocol modules.
func Module() fx.Option {
	return fx.Module("ping",
		fx.Provide(
			DefaultConfig,
			fx.Annotate(
				NewFromConfig,
				fx.As(new(corebehavior.NetworkBehavior)),
				fx.ResultTags(`group:"behaviors"`),
			),
		),
	)
}
