package transport

import (
	"context"
	"time"

	"github.com/cariers/volans/pkg/ma"
)

// Map post-processes Output after the connection is formed; f also
// receives a ConnectedPoint distinguishing dialer/listener.
func Map[O, O2 any](t Transport[O], f func(O, ConnectedPoint) (O2, error)) Transport[O2] {
	return &mapTransport[O, O2]{inner: t, f: f}
}

type mapTransport[O, O2 any] struct {
	inner Transport[O]
	f     func(O, ConnectedPoint) (O2, error)
}

func (m *mapTransport[O, O2]) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan Result[O2], error) {
	ch, err := m.inner.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	out := make(chan Result[O2], 1)
	go func() {
		defer close(out)
		r := <-ch
		if r.Err != nil {
			var zero O2
			out <- Result[O2]{Output: zero, Err: r.Err}
			return
		}
		o2, err := m.f(r.Output, ConnectedPoint{Dialer: true, Remote: addr})
		out <- Result[O2]{Output: o2, Err: err}
	}()
	return out, nil
}

func (m *mapTransport[O, O2]) Listen(addr ma.Multiaddr) (Listener[O2], error) {
	l, err := m.inner.Listen(addr)
	if err != nil {
		return nil, err
	}
	return &mapListener[O, O2]{inner: l, f: m.f}, nil
}

type mapListener[O, O2 any] struct {
	inner Listener[O]
	f     func(O, ConnectedPoint) (O2, error)
}

func (l *mapListener[O, O2]) Multiaddr() ma.Multiaddr { return l.inner.Multiaddr() }
func (l *mapListener[O, O2]) Close() error            { return l.inner.Close() }

func (l *mapListener[O, O2]) Events() <-chan ListenerEvent[O2] {
	out := make(chan ListenerEvent[O2])
	go func() {
		defer close(out)
		for ev := range l.inner.Events() {
			out <- mapListenerEvent(ev, l.f)
		}
	}()
	return out
}

func mapListenerEvent[O, O2 any](ev ListenerEvent[O], f func(O, ConnectedPoint) (O2, error)) ListenerEvent[O2] {
	out := ListenerEvent[O2]{Kind: ev.Kind, Addr: ev.Addr, Local: ev.Local, Remote: ev.Remote, Err: ev.Err}
	if ev.Kind == EventIncoming {
		upgraded := make(chan Result[O2], 1)
		go func() {
			defer close(upgraded)
			r := <-ev.Upgrade
			if r.Err != nil {
				var zero O2
				upgraded <- Result[O2]{Output: zero, Err: r.Err}
				return
			}
			o2, err := f(r.Output, ConnectedPoint{Dialer: false, Local: ev.Local, Remote: ev.Remote})
			upgraded <- Result[O2]{Output: o2, Err: err}
		}()
		out.Upgrade = upgraded
	}
	return out
}

// MapErr lifts Error to a different error at both the dial and listen
// paths, including errors carried by listener events. A
// NotSupportedError returned synchronously is passed through unmapped,
// so Choice can still fall through on it.
func MapErr[O any](t Transport[O], f func(error) error) Transport[O] {
	return &mapErrTransport[O]{inner: t, f: f}
}

type mapErrTransport[O any] struct {
	inner Transport[O]
	f     func(error) error
}

func (m *mapErrTransport[O]) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan Result[O], error) {
	ch, err := m.inner.Dial(ctx, addr)
	if err != nil {
		if IsNotSupported(err) {
			return nil, err
		}
		return nil, m.f(err)
	}
	out := make(chan Result[O], 1)
	go func() {
		defer close(out)
		r := <-ch
		if r.Err != nil {
			r.Err = m.f(r.Err)
		}
		out <- r
	}()
	return out, nil
}

func (m *mapErrTransport[O]) Listen(addr ma.Multiaddr) (Listener[O], error) {
	l, err := m.inner.Listen(addr)
	if err != nil {
		if IsNotSupported(err) {
			return nil, err
		}
		return nil, m.f(err)
	}
	return &mapErrListener[O]{inner: l, f: m.f}, nil
}

type mapErrListener[O any] struct {
	inner Listener[O]
	f     func(error) error
}

func (l *mapErrListener[O]) Multiaddr() ma.Multiaddr { return l.inner.Multiaddr() }
func (l *mapErrListener[O]) Close() error            { return l.inner.Close() }
func (l *mapErrListener[O]) Events() <-chan ListenerEvent[O] {
	out := make(chan ListenerEvent[O])
	go func() {
		defer close(out)
		for ev := range l.inner.Events() {
			if ev.Err != nil {
				ev.Err = l.f(ev.Err)
			}
			out <- ev
		}
	}()
	return out
}

// AndThen chains a continuation that turns an Output into a new Output
// via its own fallible (possibly asynchronous) step.
func AndThen[O, O2 any](t Transport[O], f func(O) (O2, error)) Transport[O2] {
	return Map[O, O2](t, func(o O, _ ConnectedPoint) (O2, error) { return f(o) })
}

// Choice tries a first; if it reports NotSupported, falls through to b.
func Choice[O any](a, b Transport[O]) Transport[O] {
	return &choiceTransport[O]{a: a, b: b}
}

type choiceTransport[O any] struct{ a, b Transport[O] }

func (c *choiceTransport[O]) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan Result[O], error) {
	ch, err := c.a.Dial(ctx, addr)
	if err == nil {
		return ch, nil
	}
	if !IsNotSupported(err) {
		return nil, err
	}
	return c.b.Dial(ctx, addr)
}

func (c *choiceTransport[O]) Listen(addr ma.Multiaddr) (Listener[O], error) {
	l, err := c.a.Listen(addr)
	if err == nil {
		return l, nil
	}
	if !IsNotSupported(err) {
		return nil, err
	}
	return c.b.Listen(addr)
}

// Timeout wraps dial and each listener incoming-upgrade in a deadline.
func Timeout[O any](t Transport[O], d time.Duration) Transport[O] {
	return &timeoutTransport[O]{inner: t, d: d}
}

type timeoutTransport[O any] struct {
	inner Transport[O]
	d     time.Duration
}

func (tt *timeoutTransport[O]) Dial(ctx context.Context, addr ma.Multiaddr) (<-chan Result[O], error) {
	ch, err := tt.inner.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return timeoutDial(ctx, tt.d, ch), nil
}

func (tt *timeoutTransport[O]) Listen(addr ma.Multiaddr) (Listener[O], error) {
	l, err := tt.inner.Listen(addr)
	if err != nil {
		return nil, err
	}
	return &timeoutListener[O]{inner: l, d: tt.d}, nil
}

type timeoutListener[O any] struct {
	inner Listener[O]
	d     time.Duration
}

func (l *timeoutListener[O]) Multiaddr() ma.Multiaddr { return l.inner.Multiaddr() }
func (l *timeoutListener[O]) Close() error            { return l.inner.Close() }
func (l *timeoutListener[O]) Events() <-chan ListenerEvent[O] {
	out := make(chan ListenerEvent[O])
	go func() {
		defer close(out)
		for ev := range l.inner.Events() {
			if ev.Kind == EventIncoming {
				ev.Upgrade = timeoutDial(context.Background(), l.d, ev.Upgrade)
			}
			out <- ev
		}
	}()
	return out
}

// Boxed type-erases t's Output to `any`, letting callers store
// heterogeneous transports in one slice (the Go analogue of Rust's
// Boxed<O>; Go's interfaces already erase concrete types, so this mainly
// exists to preserve the original's vocabulary in call sites).
func Boxed[O any](t Transport[O]) Transport[any] {
	return Map[O, any](t, func(o O, _ ConnectedPoint) (any, error) { return o, nil })
}
