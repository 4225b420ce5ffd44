// Package ws implements transport.Transport[transport.RawConn] over
// WebSocket, using github.com/gorilla/websocket as the wire
// implementation. gorilla/websocket is message-framed rather than
// stream-oriented, so conn.go adapts it to io.ReadWriteCloser by
// carrying a single in-flight reader across Read calls and opening one
// binary message writer per Write.
//
// Supported address forms:
//
//	/ip4/1.2.3.4/tcp/4001/ws
//	/ip6/::1/tcp/4001/ws
//	/dns4/example.com/tcp/443/tls/ws   (secure, dialed over wss://)
//
// Authentication and multiplexing are layered on top by the same
// transport.Authenticate/transport.Multiplex stages used for tcp; this
// package only produces the raw byte-stream connection.
package ws
