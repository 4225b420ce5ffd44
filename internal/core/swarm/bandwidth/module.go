package bandwidth

import (
	"context"
	"time"

	"go.uber.org/fx"
)

// Module provides a *Counter and trims its idle entries on a ticker for
// the lifetime of the fx app.
func Module() fx.Option {
	return fx.Module("bandwidth",
		fx.Provide(ProvideCounter),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCounter builds the process-wide bandwidth counter from an
// optional config, defaulting when none is supplied.
func ProvideCounter(in struct {
	fx.In
	Config *Config `optional:"true"`
}) *Counter {
	cfg := in.Config
	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	return NewCounter(*cfg)
}

type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Counter *Counter
	Config  *Config `optional:"true"`
}

func registerLifecycle(input lifecycleInput) {
	config := DefaultConfig()
	if input.Config != nil {
		config = *input.Config
	}

	var stopTrim chan struct{}

	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if config.TrimInterval > 0 {
				stopTrim = make(chan struct{})
				go func() {
					ticker := time.NewTicker(config.TrimInterval)
					defer ticker.Stop()
					for {
						select {
						case <-ticker.C:
							input.Counter.TrimIdle(time.Now().Add(-config.IdleTimeout))
						case <-stopTrim:
							return
						}
					}
				}()
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			if stopTrim != nil {
				close(stopTrim)
			}
			return nil
		},
	})
}
