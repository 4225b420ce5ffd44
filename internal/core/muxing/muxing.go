// Package muxing defines the StreamMuxer interface the connection driver
// polls for new inbound substreams and uses to open outbound substreams.
// Grounded on usage sites in original_source/volans-swarm's
// connection/inbound.rs and connection/outbound.rs (poll_inbound,
// poll_outbound, poll, close), rendered as blocking calls since Go's
// goroutine-per-connection model replaces the poll/Future event loop.
package muxing

import "io"

// Stream is one substream carried over a multiplexed connection.
type Stream interface {
	io.ReadWriteCloser
	// CloseWrite half-closes the write side, signaling EOF to the peer
	// while still permitting reads.
	CloseWrite() error
}

// StreamMuxer multiplexes substreams over a single authenticated
// connection. AcceptStream blocks until a new inbound substream arrives
// or the muxer closes. OpenStream blocks until a new outbound substream
// is available (some muxers apply flow-control backpressure here).
type StreamMuxer interface {
	AcceptStream() (Stream, error)
	OpenStream() (Stream, error)
	// Close tears down the muxer and every substream immediately.
	Close() error
	// CloseGraceful initiates a graceful shutdown: no further streams are
	// accepted or opened, but in-flight ones may finish. It returns once
	// the underlying transport connection itself is closed.
	CloseGraceful() error
	IsClosed() bool
}
