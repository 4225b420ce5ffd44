package handler

import "context"

// Dummy accepts no inbound protocols, requests no outbound streams, and
// never asks for keep-alive: a connection driven solely by this handler
// closes as soon as its shutdown timer or ShutdownAsap condition allows.
// Grounded on original_source/volans-swarm/src/handler/dummy.rs.
type Dummy struct{}

func (Dummy) ListenProtocol() SubstreamProtocol { return SubstreamProtocol{} }
func (Dummy) OnConnectionEvent(ConnectionEvent) {}
func (Dummy) OnBehaviorAction(any)              {}
func (Dummy) Poll(context.Context) (HandlerEvent, bool) { return nil, false }
func (Dummy) KeepAlive() bool { return false }
