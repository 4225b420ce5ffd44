// Package tcp implements transport.Transport[transport.RawConn] over
// plain TCP sockets.
//
// A raw TCP connection already satisfies transport.RawConn (it is an
// io.ReadWriteCloser), so this package produces net.Conn values directly
// and leaves authentication and multiplexing to the generic Authenticate
// and Multiplex upgrade stages in the parent transport package.
//
// Supported address forms:
//
//	/ip4/1.2.3.4/tcp/4001
//	/ip6/::1/tcp/4001
package tcp
