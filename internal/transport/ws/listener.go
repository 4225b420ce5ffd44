package ws

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	ct "github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/ma"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Listener serves ws upgrades over a plain net.Listener through an
// http.Server, the idiom gorilla/websocket's own examples use: one
// handler performs the upgrade and hands the resulting *websocket.Conn
// to the accept loop over a channel.
type Listener struct {
	ln     net.Listener
	server *http.Server
	local  ma.Multiaddr
	secure bool

	accepted chan *websocket.Conn
	events   chan ct.ListenerEvent[ct.RawConn]
	done     chan struct{}
}

func newListener(ln net.Listener, local ma.Multiaddr, secure bool) *Listener {
	l := &Listener{
		ln:       ln,
		local:    local,
		secure:   secure,
		accepted: make(chan *websocket.Conn),
		events:   make(chan ct.ListenerEvent[ct.RawConn]),
		done:     make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handleUpgrade)
	l.server = &http.Server{Handler: mux}

	go l.server.Serve(ln)
	go l.acceptLoop()
	return l
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	select {
	case l.accepted <- wsConn:
	case <-l.done:
		wsConn.Close()
	}
}

func (l *Listener) acceptLoop() {
	defer close(l.events)
	l.events <- ct.ListenerEvent[ct.RawConn]{Kind: ct.EventNewAddress, Addr: l.local}
	for {
		select {
		case wsConn := <-l.accepted:
			remote, err := fromNetAddr(wsConn.RemoteAddr(), l.secure)
			if err != nil {
				wsConn.Close()
				continue
			}
			upgrade := make(chan ct.Result[ct.RawConn], 1)
			upgrade <- ct.Result[ct.RawConn]{Output: newConn(wsConn)}
			close(upgrade)
			logger.Debug("ws accepted connection", "remote", remote)
			l.events <- ct.ListenerEvent[ct.RawConn]{
				Kind:    ct.EventIncoming,
				Local:   l.local,
				Remote:  remote,
				Upgrade: upgrade,
			}
		case <-l.done:
			l.events <- ct.ListenerEvent[ct.RawConn]{Kind: ct.EventClosed, Addr: l.local}
			return
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
	return l.server.Close()
}

func (l *Listener) Multiaddr() ma.Multiaddr { return l.local }
