// Package transport defines the Transport/Listener interface and its
// combinators (Map, MapErr, AndThen, Choice, Timeout, Boxed, Upgrade) that
// assemble heterogeneous concrete transports (tcp, ws) into one typed
// pipeline producing authenticated, multiplexed connections keyed by peer
// identity. Grounded on original_source/volans-core/src/transport.rs.
//
// Go has no type-level builder the way Rust's upgrade() method chain
// does (a method cannot introduce new type parameters), so the
// authenticate/multiplex staging is expressed as two concrete functions,
// Authenticate and Multiplex, built atop the generic AndThen combinator
// rather than as a fluent generic builder type. See DESIGN.md.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cariers/volans/pkg/ma"
)

// ConnectedPoint distinguishes which side of a connection attempt a
// combinator's callback is running for.
type ConnectedPoint struct {
	Dialer bool
	Local  ma.Multiaddr
	Remote ma.Multiaddr
}

// NotSupportedError means this transport layer does not recognize addr
// and a Choice combinator should fall through to its alternative.
type NotSupportedError struct {
	Addr ma.Multiaddr
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("transport: address not supported: %s", e.Addr)
}

// IsNotSupported reports whether err (or any error it wraps) is a
// NotSupportedError.
func IsNotSupported(err error) bool {
	var nse *NotSupportedError
	return errors.As(err, &nse)
}

// ErrTimeout is returned when a Timeout-wrapped dial or incoming upgrade
// exceeds its deadline.
var ErrTimeout = errors.New("transport: operation timed out")

// Result carries the outcome of an asynchronous dial or incoming-upgrade
// operation, delivered over a channel (the Go analogue of a Rust Future).
type Result[O any] struct {
	Output O
	Err    error
}

// ListenerEventKind discriminates a ListenerEvent's payload.
type ListenerEventKind int

const (
	EventNewAddress ListenerEventKind = iota
	EventAddressExpired
	EventIncoming
	EventClosed
	EventError
)

// ListenerEvent mirrors the original's ListenerEvent enum: NewAddress,
// AddressExpired, Incoming{local,remote,upgrade}, Closed, Error.
type ListenerEvent[O any] struct {
	Kind    ListenerEventKind
	Addr    ma.Multiaddr
	Local   ma.Multiaddr
	Remote  ma.Multiaddr
	Upgrade <-chan Result[O]
	Err     error
}

// Listener yields a stream of ListenerEvents for one bound address.
type Listener[O any] interface {
	Events() <-chan ListenerEvent[O]
	Close() error
	Multiaddr() ma.Multiaddr
}

// Transport dials and listens, producing typed Output values.
type Transport[O any] interface {
	// Dial returns a channel that will receive exactly one Result once
	// the connection attempt resolves, or a synchronous error if addr is
	// not supported by this transport at all.
	Dial(ctx context.Context, addr ma.Multiaddr) (<-chan Result[O], error)
	Listen(addr ma.Multiaddr) (Listener[O], error)
}

// dialChan1 delivers a single already-computed result on a buffered
// channel, the Go idiom for "an already-resolved future".
func dialChan1[O any](out O, err error) <-chan Result[O] {
	ch := make(chan Result[O], 1)
	ch <- Result[O]{Output: out, Err: err}
	close(ch)
	return ch
}

// timeoutDial races a dial channel against a deadline, the Go analogue of
// original_source's Transport::timeout wrapper.
func timeoutDial[O any](ctx context.Context, d time.Duration, ch <-chan Result[O]) <-chan Result[O] {
	out := make(chan Result[O], 1)
	go func() {
		defer close(out)
		select {
		case r := <-ch:
			out <- r
		case <-time.After(d):
			var zero O
			out <- Result[O]{Output: zero, Err: ErrTimeout}
		case <-ctx.Done():
			var zero O
			out <- Result[O]{Output: zero, Err: ctx.Err()}
		}
	}()
	return out
}
