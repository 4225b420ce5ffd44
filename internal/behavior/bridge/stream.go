package bridge

import (
	"bufio"

	"github.com/cariers/volans/internal/core/muxing"
)

// bufferedStream lets a handshake read via bufio.Reader without losing
// any bytes the peer pipelined immediately behind it: reads drain the
// buffer first, writes/closes pass straight through to the underlying
// stream.
type bufferedStream struct {
	muxing.Stream
	r *bufio.Reader
}

func newBufferedStream(s muxing.Stream, r *bufio.Reader) muxing.Stream {
	return bufferedStream{Stream: s, r: r}
}

func (b bufferedStream) Read(p []byte) (int, error) {
	return b.r.Read(p)
}
