package ping

import (
	"context"
	"errors"
	"time"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
	"github.com/cariers/volans/internal/core/streamselect"
)

// Handler drives one connection's ping traffic: it offers ProtocolID
// inbound (echoing whatever it receives) and, on its own schedule,
// opens an outbound substream to measure round-trip time. Grounded on
// original_source/protocols/volans-ping's outbound.rs state machine
// (None -> OpenStream -> Ping -> Idle), collapsed to fields on one
// struct instead of an explicit enum since Poll already runs inside a
// single connection goroutine.
type Handler struct {
	cfg Config

	results chan Result

	outboundPending bool
	unsupported     bool
	failures        int
	nextPing        time.Time
}

// NewHandler returns a Handler ready to ping immediately once the
// connection opens.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		cfg:      cfg,
		results:  make(chan Result, 1),
		nextPing: time.Now(),
	}
}

func (h *Handler) ListenProtocol() handler.SubstreamProtocol {
	return handler.SubstreamProtocol{Protocols: []string{ProtocolID}, Timeout: h.cfg.Timeout}
}

func (h *Handler) OnConnectionEvent(ev handler.ConnectionEvent) {
	switch e := ev.(type) {
	case handler.FullyNegotiatedInbound:
		go h.serveInbound(e.Stream)
	case handler.FullyNegotiatedOutbound:
		go h.runOutboundPing(e.Stream)
	case handler.DialUpgradeError:
		h.outboundPending = false
		switch {
		case e.Error.Timeout:
			h.results <- Result{Err: ErrTimeout}
		default:
			h.results <- Result{Err: e.Error}
		}
	case handler.ListenUpgradeError:
		logger.Debug("ping inbound negotiation failed", "err", e.Error)
	}
}

func (h *Handler) OnBehaviorAction(any) {}

func (h *Handler) KeepAlive() bool { return false }

func (h *Handler) Poll(context.Context) (handler.HandlerEvent, bool) {
	select {
	case r := <-h.results:
		h.outboundPending = false
		h.handleResult(r)
		return handler.Custom{Event: r}, true
	default:
	}

	if h.failures >= h.cfg.MaxFailures {
		return handler.Close{Err: ErrTimeout}, true
	}

	if !h.unsupported && !h.outboundPending && !h.nextPing.After(time.Now()) {
		h.outboundPending = true
		return handler.OutboundSubstreamRequest{
			Protocol: handler.SubstreamProtocol{Protocols: []string{ProtocolID}, Timeout: h.cfg.Timeout},
		}, true
	}
	return nil, false
}

func (h *Handler) handleResult(r Result) {
	if r.Err == nil {
		h.failures = 0
		h.nextPing = time.Now().Add(h.cfg.Interval)
		return
	}
	if errors.Is(r.Err, streamselect.ErrNegotiationFailed) || errors.Is(r.Err, ErrUnsupported) {
		h.unsupported = true
		return
	}
	h.failures++
	h.nextPing = time.Now().Add(h.cfg.Interval)
}

// runOutboundPing sends one ping and reports the result, closing stream
// if it is still blocked on I/O once the configured timeout elapses
// (muxing.Stream carries no deadline of its own, so closing is the only
// available cancellation).
func (h *Handler) runOutboundPing(stream muxing.Stream) {
	timer := time.AfterFunc(h.cfg.Timeout, func() { stream.Close() })
	rtt, err := sendPing(stream)
	timer.Stop()
	if err != nil {
		h.results <- Result{Err: err}
		return
	}
	h.results <- Result{RTT: rtt}
}

// serveInbound echoes ping payloads until the stream errors or closes.
func (h *Handler) serveInbound(stream muxing.Stream) {
	defer stream.Close()
	for {
		if err := recvPing(stream); err != nil {
			return
		}
	}
}
