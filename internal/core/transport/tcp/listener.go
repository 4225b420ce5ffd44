package tcp

import (
	"net"

	ct "github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/ma"
)

// Listener adapts a net.TCPListener's Accept loop into a ct.ListenerEvent
// stream. Each accepted socket is delivered as an EventIncoming whose
// Upgrade channel resolves immediately, since accepting a TCP connection
// has no asynchronous step of its own.
type Listener struct {
	ln     *net.TCPListener
	local  ma.Multiaddr
	events chan ct.ListenerEvent[ct.RawConn]
	done   chan struct{}
}

func newListener(ln *net.TCPListener, local ma.Multiaddr) *Listener {
	l := &Listener{
		ln:     ln,
		local:  local,
		events: make(chan ct.ListenerEvent[ct.RawConn]),
		done:   make(chan struct{}),
	}
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	defer close(l.events)
	l.events <- ct.ListenerEvent[ct.RawConn]{Kind: ct.EventNewAddress, Addr: l.local}
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				l.events <- ct.ListenerEvent[ct.RawConn]{Kind: ct.EventClosed, Addr: l.local}
			default:
				l.events <- ct.ListenerEvent[ct.RawConn]{Kind: ct.EventError, Addr: l.local, Err: err}
			}
			return
		}
		remote, err := fromTCPAddr(conn.RemoteAddr().(*net.TCPAddr))
		if err != nil {
			conn.Close()
			continue
		}
		upgrade := make(chan ct.Result[ct.RawConn], 1)
		upgrade <- ct.Result[ct.RawConn]{Output: conn}
		close(upgrade)
		logger.Debug("tcp accepted connection", "remote", remote)
		l.events <- ct.ListenerEvent[ct.RawConn]{
			Kind:    ct.EventIncoming,
			Local:   l.local,
			Remote:  remote,
			Upgrade: upgrade,
		}
	}
}

func (l *Listener) Events() <-chan ct.ListenerEvent[ct.RawConn] { return l.events }

func (l *Listener) Close() error {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return l.ln.Close()
}

func (l *Listener) Multiaddr() ma.Multiaddr { return l.local }
