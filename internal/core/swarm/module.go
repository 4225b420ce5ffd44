package swarm

import (
	"context"

	"go.uber.org/fx"

	"github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/peer"
)

// Module provides a *Swarm wired to the transport stack and the
// NetworkBehavior supplied elsewhere in the fx graph, and drives its
// event loop for the lifetime of the app.
func Module() fx.Option {
	return fx.Module("swarm",
		fx.Provide(NewConfig, provideSwarm),
		fx.Invoke(registerLifecycle),
	)
}

func NewConfig() *Config { return DefaultConfig() }

type swarmParams struct {
	fx.In
	Local    peer.ID
	Stack    *transport.Stack
	Behavior behavior.NetworkBehavior
	Config   *Config
}

func provideSwarm(p swarmParams) (*Swarm, error) {
	return New(p.Local, p.Stack.Transport, p.Behavior, WithConfig(p.Config))
}

func registerLifecycle(lc fx.Lifecycle, s *Swarm) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go s.Run(runCtx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if cancel != nil {
				cancel()
			}
			return s.Close()
		},
	})
}
