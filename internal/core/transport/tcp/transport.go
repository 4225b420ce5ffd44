package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	ct "github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/lib/log"
	"github.com/cariers/volans/pkg/ma"
)

var logger = log.Logger("transport/tcp")

// Transport implements ct.Transport[ct.RawConn] over plain TCP sockets.
// It produces net.Conn values directly; authentication and multiplexing
// are layered on top by ct.Authenticate and ct.Multiplex.
type Transport struct {
	mu        sync.Mutex
	listeners map[*Listener]struct{}
	closed    bool
}

// New creates a TCP transport.
func New() *Transport {
	return &Transport{listeners: make(map[*Listener]struct{})}
}

func (t *Transport) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan ct.Result[ct.RawConn], error) {
	tcpAddr, err := toTCPAddr(addr)
	if err != nil {
		return nil, &ct.NotSupportedError{Addr: addr}
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	out := make(chan ct.Result[ct.RawConn], 1)
	go func() {
		defer close(out)
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", tcpAddr.String())
		if err != nil {
			out <- ct.Result[ct.RawConn]{Err: fmt.Errorf("tcp: dial %s: %w", addr, err)}
			return
		}
		logger.Debug("tcp dial succeeded", "addr", addr)
		out <- ct.Result[ct.RawConn]{Output: conn}
	}()
	return out, nil
}

func (t *Transport) Listen(addr ma.Multiaddr) (ct.Listener[ct.RawConn], error) {
	tcpAddr, err := toTCPAddr(addr)
	if err != nil {
		return nil, &ct.NotSupportedError{Addr: addr}
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("tcp: listen %s: %w", addr, err)
	}
	local, err := fromTCPAddr(ln.Addr().(*net.TCPAddr))
	if err != nil {
		ln.Close()
		return nil, err
	}
	l := newListener(ln, local)

	t.mu.Lock()
	t.listeners[l] = struct{}{}
	t.mu.Unlock()

	logger.Info("tcp listening", "addr", local)
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
