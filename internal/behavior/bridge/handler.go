package bridge

import (
	"bufio"
	"context"
	"sync"
	"time"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
)

// requestBridgeConnect asks this connection's peer (the relay) to
// bridge a stream through to destination.
type requestBridgeConnect struct {
	correlationID string
	destination   []byte
}

// requestRelayConnect asks this connection's peer (the destination, if
// it runs this same behavior) to accept a relay-connect substream,
// driven by the relay behavior once it has matched an inbound
// BridgeConnect to a connected destination.
type requestRelayConnect struct {
	correlationID string
}

// inboundBridgeRequest is what Handler reports up once it has read a
// BridgeConnect off a freshly inbound BridgeProtocolID substream; the
// Behavior decides whether/how to satisfy it (relay role).
type inboundBridgeRequest struct {
	correlationID string
	destination   []byte
	stream        muxing.Stream
}

// relayConnectReady is what Handler reports once an outbound
// RelayConnectProtocolID substream it requested (on the relay's
// connection to the destination) is negotiated (relay role).
type relayConnectReady struct {
	correlationID string
	stream        muxing.Stream
}

// connectResult is what Handler reports once a BridgeConnect/
// BridgeStatus round trip it initiated completes (client role).
type connectResult struct {
	ConnectResult
}

// inboundBridged is what Handler reports once an inbound
// RelayConnectProtocolID substream is negotiated with no outbound
// request of its own behind it (destination role).
type inboundBridged struct {
	stream muxing.Stream
}

// Handler plays all three bridge roles on one connection, since any
// peer may be a client, a relay, or a destination depending on which
// substream gets negotiated.
type Handler struct {
	cfg Config

	mu      sync.Mutex
	pending []pendingOutbound
	results chan any
}

type pendingOutbound struct {
	protocol string
	info     any
}

func NewHandler(cfg Config) *Handler {
	return &Handler{cfg: cfg, results: make(chan any, 8)}
}

func (h *Handler) ListenProtocol() handler.SubstreamProtocol {
	return handler.SubstreamProtocol{
		Protocols: []string{BridgeProtocolID, RelayConnectProtocolID},
		Timeout:   h.cfg.ConnectTimeout,
	}
}

func (h *Handler) OnBehaviorAction(action any) {
	switch a := action.(type) {
	case requestBridgeConnect:
		h.enqueue(BridgeProtocolID, a)
	case requestRelayConnect:
		h.enqueue(RelayConnectProtocolID, a)
	}
}

func (h *Handler) enqueue(protocol string, info any) {
	h.mu.Lock()
	h.pending = append(h.pending, pendingOutbound{protocol: protocol, info: info})
	h.mu.Unlock()
}

func (h *Handler) KeepAlive() bool { return false }

func (h *Handler) OnConnectionEvent(ev handler.ConnectionEvent) {
	switch e := ev.(type) {
	case handler.FullyNegotiatedInbound:
		switch e.Protocol {
		case BridgeProtocolID:
			go h.serveInboundBridgeRequest(e.Stream)
		case RelayConnectProtocolID:
			h.results <- inboundBridged{stream: e.Stream}
		}
	case handler.FullyNegotiatedOutbound:
		switch info := e.Info.(type) {
		case requestBridgeConnect:
			go h.runBridgeConnect(e.Stream, info)
		case requestRelayConnect:
			h.results <- relayConnectReady{correlationID: info.correlationID, stream: e.Stream}
		}
	case handler.DialUpgradeError:
		switch info := e.Info.(type) {
		case requestBridgeConnect:
			h.results <- connectResult{ConnectResult{CorrelationID: info.correlationID, Err: e.Error}}
		case requestRelayConnect:
			h.results <- relayConnectReady{correlationID: info.correlationID, stream: nil}
		}
	}
}

func (h *Handler) Poll(context.Context) (handler.HandlerEvent, bool) {
	select {
	case r := <-h.results:
		return handler.Custom{Event: r}, true
	default:
	}

	h.mu.Lock()
	if len(h.pending) == 0 {
		h.mu.Unlock()
		return nil, false
	}
	next := h.pending[0]
	h.pending = h.pending[1:]
	h.mu.Unlock()

	return handler.OutboundSubstreamRequest{
		Protocol: handler.SubstreamProtocol{
			Protocols: []string{next.protocol},
			Timeout:   h.cfg.ConnectTimeout,
			Info:      next.info,
		},
	}, true
}

func (h *Handler) serveInboundBridgeRequest(stream muxing.Stream) {
	br := bufio.NewReader(stream)
	req, err := readBridgeConnect(br)
	if err != nil {
		stream.Close()
		return
	}
	h.results <- inboundBridgeRequest{
		correlationID: req.CorrelationID,
		destination:   req.Destination,
		stream:        newBufferedStream(stream, br),
	}
}

func (h *Handler) runBridgeConnect(stream muxing.Stream, req requestBridgeConnect) {
	timer := time.AfterFunc(h.cfg.ConnectTimeout, func() { stream.Close() })
	defer timer.Stop()

	if err := writeJSON(stream, BridgeConnect{CorrelationID: req.correlationID, Destination: req.destination}); err != nil {
		h.results <- connectResult{ConnectResult{CorrelationID: req.correlationID, Err: err}}
		return
	}
	br := bufio.NewReader(stream)
	status, err := readBridgeStatus(br)
	if err != nil {
		h.results <- connectResult{ConnectResult{CorrelationID: req.correlationID, Err: err}}
		return
	}
	if !status.OK {
		stream.Close()
		h.results <- connectResult{ConnectResult{CorrelationID: req.correlationID, Err: errStatus(status.Err)}}
		return
	}
	h.results <- connectResult{ConnectResult{CorrelationID: req.correlationID, Stream: newBufferedStream(stream, br)}}
}
