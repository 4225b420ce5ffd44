package identify

import (
	"go.uber.org/fx"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
)

// Module provides a *Behavior, exposed as a corebehavior.NetworkBehavior
// value in the "behaviors" group, mirroring ping.Module's wiring.
func Module() fx.Option {
	return fx.Module("identify",
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
