package swarm

import (
	"context"

	"github.com/cariers/volans/internal/core/transport"
	"github.com/cariers/volans/pkg/ma"
)

// activeListener tracks one bound listener alongside the id Events()
// reports it under.
type activeListener struct {
	id ListenerID
	ln transport.Listener[transport.EstablishedOutput]
}

// Listen binds addr and starts forwarding its incoming connections into
// the pool. Bind failures are returned synchronously; everything after
// that (new/expired addresses, accepted connections, listener closure)
// arrives on Events().
func (s *Swarm) Listen(addr ma.Multiaddr) (ListenerID, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSwarmClosed
	}
	s.mu.Unlock()

	ln, err := s.transport.Listen(addr)
	if err != nil {
		return 0, &ListenError{Err: err}
	}

	id := newListenerID()
	al := &activeListener{id: id, ln: ln}

	s.mu.Lock()
	s.listeners[id] = al
	s.mu.Unlock()

	go s.pumpListener(al)
	return id, nil
}

// RemoveListener closes listener id, reporting false if it was already
// gone.
func (s *Swarm) RemoveListener(id ListenerID) bool {
	s.mu.Lock()
	al, ok := s.listeners[id]
	if ok {
		delete(s.listeners, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	al.ln.Close()
	return true
}

func (s *Swarm) pumpListener(al *activeListener) {
	for ev := range al.ln.Events() {
		switch ev.Kind {
		case transport.EventNewAddress:
			s.emit(NewListenAddr{ListenerID: al.id, Addr: ev.Addr})
		case transport.EventAddressExpired:
			s.emit(ExpiredListenAddr{ListenerID: al.id, Addr: ev.Addr})
		case transport.EventIncoming:
			go s.acceptIncoming(al, ev)
		case transport.EventClosed:
			s.forgetListener(al.id)
			s.emit(ListenerClosed{ListenerID: al.id, Err: ev.Err})
		case transport.EventError:
			s.emit(ListenerClosed{ListenerID: al.id, Err: ev.Err})
		}
	}
}

func (s *Swarm) forgetListener(id ListenerID) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

func (s *Swarm) acceptIncoming(al *activeListener, ev transport.ListenerEvent[transport.EstablishedOutput]) {
	r := <-ev.Upgrade
	if r.Err != nil {
		s.emit(IncomingConnectionError{Addr: ev.Remote, Err: r.Err})
		return
	}
	s.pool.Accept(context.Background(), r.Output.PeerID, r.Output.Muxer, ev.Remote)
}
