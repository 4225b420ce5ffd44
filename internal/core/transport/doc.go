// Package transport defines the generic Transport[O]/Listener[O]
// abstraction and the combinators (Map, MapErr, AndThen, Choice, Timeout,
// Boxed) that compose concrete transports (tcp, ws) with the generic
// Authenticate and Multiplex upgrade stages into one pipeline producing
// authenticated, multiplexed connections.
//
// # Layering
//
//	RawConn            -- what tcp/ws produce (an io.ReadWriteCloser)
//	Authenticate(u)     -- AuthedConn, bound to a verified peer id
//	Multiplex(u)        -- EstablishedOutput, what the connection pool consumes
//
// Concrete transports are combined with Choice before upgrading, e.g.
// tcp over plaintext+yamux composed with a websocket transport sharing
// the same upgrade stack.
package transport
