package identify

import (
	"bufio"
	"context"
	"time"

	"github.com/cariers/volans/internal/core/handler"
	"github.com/cariers/volans/internal/core/muxing"
)

// Handler runs one identify exchange per connection and then re-runs it
// every RefreshInterval, the same "periodic outbound substream" shape
// ping.Handler uses.
type Handler struct {
	cfg       Config
	localInfo func() Message

	results  chan Result
	pending  bool
	nextRun  time.Time
	identify bool // has at least one exchange completed?
}

type Result struct {
	Info Info
	Err  error
}

func NewHandler(cfg Config, localInfo func() Message) *Handler {
	return &Handler{
		cfg:       cfg,
		localInfo: localInfo,
		results:   make(chan Result, 1),
		nextRun:   time.Now(),
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
		go h.runExchange(e.Stream)
	case handler.DialUpgradeError:
		h.pending = false
		if e.Error.Timeout {
			h.results <- Result{Err: ErrTimeout}
		} else {
			h.results <- Result{Err: e.Error}
		}
	case handler.ListenUpgradeError:
		// Peer doesn't speak identify; nothing to report, just stop
		// trying on this connection until the next scheduled attempt.
	}
}

func (h *Handler) OnBehaviorAction(any) {}
func (h *Handler) KeepAlive() bool      { return false }

func (h *Handler) Poll(context.Context) (handler.HandlerEvent, bool) {
	select {
	case r := <-h.results:
		h.pending = false
		if r.Err == nil {
			h.identify = true
			h.nextRun = time.Now().Add(h.cfg.RefreshInterval)
			return handler.Custom{Event: r}, true
		}
		h.nextRun = time.Now().Add(h.cfg.RefreshInterval)
		return nil, false
	default:
	}

	if !h.pending && !h.nextRun.After(time.Now()) {
		h.pending = true
		return handler.OutboundSubstreamRequest{
			Protocol: handler.SubstreamProtocol{Protocols: []string{ProtocolID}, Timeout: h.cfg.Timeout},
		}, true
	}
	return nil, false
}

func (h *Handler) runExchange(stream muxing.Stream) {
	timer := time.AfterFunc(h.cfg.Timeout, func() { stream.Close() })
	defer timer.Stop()
	defer stream.Close()

	local := h.localInfo()
	if err := writeMessage(stream, local); err != nil {
		h.results <- Result{Err: err}
		return
	}
	if err := stream.CloseWrite(); err != nil {
		h.results <- Result{Err: err}
		return
	}

	remote, err := readMessage(bufio.NewReader(stream))
	if err != nil {
		h.results <- Result{Err: err}
		return
	}
	h.results <- Result{Info: Info{ListenAddrs: remote.ListenAddrs, ProtocolVersion: remote.ProtocolVersion}}
}

func (h *Handler) serveInbound(stream muxing.Stream) {
	defer stream.Close()
	remote, err := readMessage(bufio.NewReader(stream))
	if err != nil {
		return
	}
	local := h.localInfo()
	_ = writeMessage(stream, local)
	_ = stream.CloseWrite()
	h.results <- Result{Info: Info{ListenAddrs: remote.ListenAddrs, ProtocolVersion: remote.ProtocolVersion}}
}
