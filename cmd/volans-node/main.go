// Command volans-node is the composition root: it wires the transport
// stack, the domain behaviors, and the swarm event loop together with
// go.uber.org/fx, the same module/provide/invoke pattern the teacher's
// own fx.go used for node.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	corebehavior "github.com/cariers/volans/internal/core/behavior"
	"github.com/cariers/volans/internal/core/swarm"
	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
	"github.com/cariers/volans/pkg/peer"

	"github.com/cariers/volans/internal/behavior/bridge"
	"github.com/cariers/volans/internal/behavior/discovery"
	"github.com/cariers/volans/internal/behavior/identify"
	"github.com/cariers/volans/internal/behavior/ping"
)

var logger = log.Logger("cmd/volans-node")

var (
	bridgeVia *string
	bridgeTo  *string
)

func main() {
	listenAddr := flag.String("listen", "/ip4/0.0.0.0/tcp/0", "multiaddr to listen on")
	enableDiscovery := flag.Bool("discovery", true, "enable mDNS peer discovery")
	bridgeVia = flag.String("bridge-via", "", "relay peer id to request a relayed dial through (requires -bridge-to)")
	bridgeTo = flag.String("bridge-to", "", "destination peer id to relay-dial through -bridge-via")
	flag.Parse()

	opts := []fx.Option{
		fx.Supply(fx.Annotate(*listenAddr, fx.ResultTags(`name:"listenAddr"`))),
		fx.Provide(newLocalPeer),
		transport.Module(),
		ping.Module(),
		identify.Module(),
		bridge.Module(),
	}
	if *enableDiscovery {
		opts = append(opts, discovery.Module())
	}
	opts = append(opts,
		fx.Provide(fx.Annotate(
			func(behaviors []corebehavior.NetworkBehavior) corebehavior.NetworkBehavior {
				return corebehavior.ComposeAll(behaviors...)
			},
			fx.ParamTags(`group:"behaviors"`),
		)),
		swarm.Module(),
		fx.Invoke(runNode),
	)

	app := fx.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "volans-node: start failed:", err)
		os.Exit(1)
	}
	<-app.Done()
	_ = app.Stop(context.Background())
}

func newLocalPeer() (peer.ID, error) {
	id, err := peer.NewRandom()
	if err != nil {
		return peer.ID{}, fmt.Errorf("generating local peer id: %w", err)
	}
	return id, nil
}

type runNodeParams struct {
	fx.In
	ListenAddr string `name:"listenAddr"`
}

func runNode(lc fx.Lifecycle, s *swarm.Swarm, br *bridge.Behavior, p runNodeParams) error {
	addr, err := ma.NewMultiaddr(p.ListenAddr)
	if err != nil {
		return fmt.Errorf("parsing listen address %q: %w", p.ListenAddr, err)
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if _, err := s.Listen(addr); err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			logger.Info("node started", "peer", s.LocalPeer().String(), "listen", addr.String())
			go logEvents(s)
			maybeBridge(br)
			return nil
		},
	})
	return nil
}

// maybeBridge exercises the relayed-dial path end-to-end when both
// -bridge-via and -bridge-to are set: wait for the relay to connect,
// then ask it to splice a stream through to the destination.
func maybeBridge(br *bridge.Behavior) {
	if *bridgeVia == "" || *bridgeTo == "" {
		return
	}
	relay, err := peer.Decode(*bridgeVia)
	if err != nil {
		logger.Error("invalid -bridge-via peer id", "err", err)
		return
	}
	dest, err := peer.Decode(*bridgeTo)
	if err != nil {
		logger.Error("invalid -bridge-to peer id", "err", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		stream, err := br.Connect(ctx, relay, dest)
		if err != nil {
			logger.Error("bridge connect failed", "relay", relay.ShortString(), "dest", dest.ShortString(), "err", err)
			return
		}
		logger.Info("bridge connect succeeded", "relay", relay.ShortString(), "dest", dest.ShortString())
		stream.Close()
	}()
}

func logEvents(s *swarm.Swarm) {
	for ev := range s.Events() {
		b, ok := ev.(swarm.Behavior)
		if !ok {
			logger.Debug("swarm event", "event", fmt.Sprintf("%T", ev))
			continue
		}
		switch e := b.Event.(type) {
		case discovery.FoundPeer:
			logger.Info("discovered peer candidate", "addr", e.Addr.String())
			if err := s.Dial(swarm.NewDialOpts(e.Addr, e.Peer)); err != nil {
				logger.Debug("dialing discovered peer failed", "addr", e.Addr.String(), "err", err)
			}
		case ping.Event:
			logger.Info("ping result", "peer", e.Peer.ShortString(), "rtt", e.Result.RTT, "err", e.Result.Err)
		case identify.Event:
			logger.Info("identified peer", "peer", e.Peer.ShortString(), "addrs", e.Info.ListenAddrs)
		case bridge.InboundBridged:
			logger.Info("inbound relayed tunnel", "relay", e.Relay.ShortString())
		default:
			logger.Debug("behavior event", "event", fmt.Sprintf("%T", b.Event))
		}
	}
}
