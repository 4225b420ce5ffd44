package transport

import (
	"context"
	"crypto/tls"
	"time"

	"go.uber.org/fx"

	"github.com/cariers/volans/internal/core/transport/tcp"
	yamuxmux "github.com/cariers/volans/internal/muxer/yamux"
	"github.com/cariers/volans/internal/transport/plaintext"
	"github.com/cariers/volans/internal/transport/ws"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/peer"
)

var moduleLogger = log.Logger("core/transport")

// Config controls which concrete transports this module wires up and
// the timeouts applied around them.
type Config struct {
	EnableTCP   bool
	EnableWS    bool
	WSTLSConfig *tls.Config
	DialTimeout time.Duration
}

// NewConfig returns the module's defaults: TCP and plain WebSocket
// enabled, a 30s dial timeout, matching the teacher's own transport
// defaults. WSTLSConfig is left nil, so wss:// addresses are rejected
// until an embedder supplies one.
func NewConfig() Config {
	return Config{
		EnableTCP:   true,
		EnableWS:    true,
		DialTimeout: 30 * time.Second,
	}
}

// Stack bundles the assembled Transport[EstablishedOutput] together with
// the concrete transports backing it, so the lifecycle hook can close
// their listeners on shutdown.
type Stack struct {
	Transport Transport[EstablishedOutput]
	tcp       *tcp.Transport
	ws        *ws.Transport
}

// Close shuts down every concrete transport's listeners.
func (s *Stack) Close() error {
	var err error
	if s.tcp != nil {
		if e := s.tcp.Close(); e != nil {
			err = e
		}
	}
	if s.ws != nil {
		if e := s.ws.Close(); e != nil {
			err = e
		}
	}
	return err
}

// NewStack composes the concrete transports enabled by cfg with the
// plaintext authenticate stage and yamux multiplex stage, the direct
// analogue of the original's
// "TcpConfig::new().upgrade().authenticate(plaintext).multiplex(yamux).boxed()"
// builder chain, expressed here as concrete function calls rather than a
// fluent generic builder (see package upgrade.go). TCP and WebSocket are
// joined with Choice so a single Transport[EstablishedOutput] dials or
// listens on whichever address form it is given.
func NewStack(local peer.ID, cfg Config) *Stack {
	auth := plaintext.Upgrade{Local: local}
	mux := yamuxmux.Upgrade{Config: yamuxmux.DefaultConfig()}

	var raw Transport[RawConn]
	var tt *tcp.Transport
	var wt *ws.Transport
	if cfg.EnableTCP {
		tt = tcp.New()
		raw = tt
	}
	if cfg.EnableWS {
		wt = ws.New(cfg.WSTLSConfig)
		if raw == nil {
			raw = wt
		} else {
			raw = Choice[RawConn](raw, wt)
		}
	}
	if raw == nil {
		moduleLogger.Warn("transport stack has no enabled concrete transport")
	}

	established := UpgradeRaw(raw, auth, mux)
	if cfg.DialTimeout > 0 {
		established = Timeout(established, cfg.DialTimeout)
	}
	return &Stack{Transport: established, tcp: tt, ws: wt}
}

// Module wires Config and the composed Stack into an fx application.
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(
			NewConfig,
			func(local peer.ID, cfg Config) *Stack {
				return NewStack(local, cfg)
			},
		),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, s *Stack) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return s.Close()
		},
	})
}
