package discovery

import (
	"context"

	"go.uber.org/fx"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
)

// Module provides a *Behavior, exposed as a corebehavior.NetworkBehavior
// value in the "behaviors" group, and starts/stops its mDNS server
// alongside the fx app.
func Module() fx.Option {
	return fx.Module("discovery",
		fx.Provide(
			DefaultConfig,
			fx.Annotate(
				NewFromConfig,
				fx.As(new(corebehavior.NetworkBehavior)),
				fx.ResultTags(`group:"behaviors"`),
			),
		),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleParams struct {
	fx.In
	Behaviors []corebehavior.NetworkBehavior `group:"behaviors"`
}

// registerLifecycle picks this module's own *Behavior back out of the
// shared "behaviors" group to start/stop its mDNS server; the group is
// how every behavior is wired into the swarm, so there's no separate
// typed handle to ask fx for directly.
func registerLifecycle(lc fx.Lifecycle, p lifecycleParams) {
	var self *Behavior
	for _, b := range p.Behaviors {
		if d, ok := b.(*Behavior); ok {
			self = d
			break
		}
	}
	if self == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return self.Start(context.Background())
		},
		OnStop: func(context.Context) error {
			return self.Close()
		},
	})
}
