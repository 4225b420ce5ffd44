package handler

import "context"

// Either tags a value as having come from the first (A) or second (B)
// side of a Select-composed pair, the Go analogue of the original's
// Either<A, B> used to merge two handlers' protocol/event spaces.
type Either[A, B any] struct {
	isB  bool
	a    A
	b    B
}

func Left[A, B any](a A) Either[A, B]  { return Either[A, B]{a: a} }
func Right[A, B any](b B) Either[A, B] { return Either[A, B]{isB: true, b: b} }

func (e Either[A, B]) Unpack() (A, B, bool) { return e.a, e.b, e.isB }

// Select composes two ConnectionHandlers into one: inbound protocol
// lists are concatenated, events/actions are tagged with Either so the
// owning behavior can tell which side produced them, and KeepAlive is
// the logical OR of both sides (mirrors the original's
// ConnectionHandlerSelect).
type Select struct {
	A, B ConnectionHandler
}

func (s Select) ListenProtocol() SubstreamProtocol {
	pa := s.A.ListenProtocol()
	pb := s.B.ListenProtocol()
	timeout := pa.timeout()
	if tb := pb.timeout(); tb > timeout {
		timeout = tb
	}
	return SubstreamProtocol{
		Protocols: append(append([]string(nil), pa.Protocols...), pb.Protocols...),
		Timeout:   timeout,
		Info:      Either[any, any]{a: pa.Info, b: pb.Info},
	}
}

// protocolSide reports which side of the Select owns protocol, used to
// route an inbound negotiation's outcome to the handler that declared it.
func (s Select) protocolSide(protocol string) bool {
	for _, p := range s.A.ListenProtocol().Protocols {
		if p == protocol {
			return false
		}
	}
	return true
}

func (s Select) OnConnectionEvent(ev ConnectionEvent) {
	switch e := ev.(type) {
	case FullyNegotiatedInbound:
		if s.protocolSide(e.Protocol) {
			s.B.OnConnectionEvent(e)
		} else {
			s.A.OnConnectionEvent(e)
		}
	case FullyNegotiatedOutbound:
		if info, ok := e.Info.(Either[any, any]); ok {
			a, b, isB := info.Unpack()
			if isB {
				e.Info = b
				s.B.OnConnectionEvent(e)
			} else {
				e.Info = a
				s.A.OnConnectionEvent(e)
			}
			return
		}
		s.A.OnConnectionEvent(e)
	case DialUpgradeError:
		if info, ok := e.Info.(Either[any, any]); ok {
			a, b, isB := info.Unpack()
			if isB {
				e.Info = b
				s.B.OnConnectionEvent(e)
			} else {
				e.Info = a
				s.A.OnConnectionEvent(e)
			}
			return
		}
		s.A.OnConnectionEvent(e)
	case ListenUpgradeError:
		s.A.OnConnectionEvent(e)
		s.B.OnConnectionEvent(e)
	}
}

func (s Select) OnBehaviorAction(action any) {
	if e, ok := action.(Either[any, any]); ok {
		a, b, isB := e.Unpack()
		if isB {
			s.B.OnBehaviorAction(b)
		} else {
			s.A.OnBehaviorAction(a)
		}
		return
	}
	s.A.OnBehaviorAction(action)
}

// Poll tries A first, then B, tagging whichever side produced an
// OutboundSubstreamRequest's Info so OnConnectionEvent can route the
// eventual negotiation outcome back to the right side, and a Custom
// event's payload so the owning behavior can tell which side raised it.
func (s Select) Poll(ctx context.Context) (HandlerEvent, bool) {
	if ev, ok := s.A.Poll(ctx); ok {
		if req, isReq := ev.(OutboundSubstreamRequest); isReq {
			req.Protocol.Info = Left[any, any](req.Protocol.Info)
			return req, true
		}
		if c, isCustom := ev.(Custom); isCustom {
			c.Event = Left[any, any](c.Event)
			return c, true
		}
		return ev, true
	}
	if ev, ok := s.B.Poll(ctx); ok {
		if req, isReq := ev.(OutboundSubstreamRequest); isReq {
			req.Protocol.Info = Right[any, any](req.Protocol.Info)
			return req, true
		}
		if c, isCustom := ev.(Custom); isCustom {
			c.Event = Right[any, any](c.Event)
			return c, true
		}
		return ev, true
	}
	return nil, false
}

func (s Select) KeepAlive() bool {
	return s.A.KeepAlive() || s.B.KeepAlive()
}
