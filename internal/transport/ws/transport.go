package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	ct "github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
)

var logger = log.Logger("transport/ws")

// Transport implements ct.Transport[ct.RawConn] over WebSocket. TLSConfig,
// when set, is used both to dial wss:// addresses and to serve them; a
// nil TLSConfig restricts this transport to plain ws://.
type Transport struct {
	TLSConfig *tls.Config

	mu        sync.Mutex
	listeners map[*Listener]struct{}
	closed    bool
}

// New creates a WebSocket transport. tlsConfig may be nil to support
// only plain ws:// addresses.
func New(tlsConfig *tls.Config) *Transport {
	return &Transport{TLSConfig: tlsConfig, listeners: make(map[*Listener]struct{})}
}

func (t *Transport) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan ct.Result[ct.RawConn], error) {
	p, err := parseAddr(addr)
	if err != nil {
		return nil, &ct.NotSupportedError{Addr: addr}
	}
	if p.secure && t.TLSConfig == nil {
		return nil, fmt.Errorf("ws: dial %s: no tls config configured for wss", addr)
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	url, err := dialURL(addr)
	if err != nil {
		return nil, &ct.NotSupportedError{Addr: addr}
	}

	out := make(chan ct.Result[ct.RawConn], 1)
	go func() {
		defer close(out)
		dialer := websocket.Dialer{
			TLSClientConfig:  t.TLSConfig,
			HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		}
		wsConn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			out <- ct.Result[ct.RawConn]{Err: fmt.Errorf("ws: dial %s: %w", addr, err)}
			return
		}
		logger.Debug("ws dial succeeded", "addr", addr)
		out <- ct.Result[ct.RawConn]{Output: newConn(wsConn)}
	}()
	return out, nil
}

func (t *Transport) Listen(addr ma.Multiaddr) (ct.Listener[ct.RawConn], error) {
	p, err := parseAddr(addr)
	if err != nil {
		return nil, &ct.NotSupportedError{Addr: addr}
	}
	if p.secure && t.TLSConfig == nil {
		return nil, fmt.Errorf("ws: listen %s: no tls config configured for wss", addr)
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	hostPort := fmt.Sprintf("%s:%d", p.host, p.port)
	var ln net.Listener
	if p.secure {
		ln, err = tls.Listen("tcp", hostPort, t.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", hostPort)
	}
	if err != nil {
		return nil, fmt.Errorf("ws: listen %s: %w", addr, err)
	}

	local, err := fromNetAddr(ln.Addr(), p.secure)
	if err != nil {
		ln.Close()
		return nil, err
	}

	l := newListener(ln, local, p.secure)
	t.mu.Lock()
	t.listeners[l] = struct{}{}
	t.mu.Unlock()

	logger.Info("ws listening", "addr", local)
	return l, nil
}

// Close shuts down every listener this transport has opened. Outstanding
// dials and accepted connections are left for their callers to close.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	listeners := make([]*Listener, 0, len(t.listeners))
	for l := range t.listeners {
		listeners = append(listeners, l)
	}
	t.mu.Unlock()

	for _, l := range listeners {
		l.Close()
	}
	return nil
}
