// Package yamux adapts github.com/hashicorp/yamux to the internal
// muxing.StreamMuxer interface. Grounded on the teacher's
// internal/core/muxer/yamux/config.go (DefaultYamuxConfig, kept nearly
// verbatim below since the default tuning values are an ambient concern,
// not domain semantics) adapted to implement the new StreamMuxer contract
// instead of the teacher's own muxerif.Config indirection.
package yamux

import (
	"io"
	"time"

	hyamux "github.com/hashicorp/yamux"

	"github.com/cariers/volans/internal/core/muxing"
)

// DefaultConfig returns the stack's default yamux tuning, matching the
// teacher's DefaultYamuxConfig values.
func DefaultConfig() *hyamux.Config {
	return &hyamux.Config{
		AcceptBacklog:          256,
		EnableKeepAlive:        true,
		KeepAliveInterval:      30 * time.Second,
		ConnectionWriteTimeout: 10 * time.Second,
		MaxStreamWindowSize:    256 * 1024,
		StreamOpenTimeout:      75 * time.Second,
		StreamCloseTimeout:     5 * time.Minute,
		LogOutput:              io.Discard,
	}
}

// Muxer adapts a hashicorp/yamux Session to muxing.StreamMuxer.
type Muxer struct {
	session *hyamux.Session
}

// NewClient wraps conn as the dialer side of a yamux session.
func NewClient(conn io.ReadWriteCloser, cfg *hyamux.Config) (*Muxer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sess, err := hyamux.Client(conn, cfg)
	if err != nil {
		return nil, err
	}
	return &Muxer{session: sess}, nil
}

// NewServer wraps conn as the listener side of a yamux session.
func NewServer(conn io.ReadWriteCloser, cfg *hyamux.Config) (*Muxer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sess, err := hyamux.Server(conn, cfg)
	if err != nil {
		return nil, err
	}
	return &Muxer{session: sess}, nil
}

type stream struct {
	*hyamux.Stream
}

func (s stream) CloseWrite() error {
	return s.Stream.CloseWrite()
}

func (m *Muxer) AcceptStream() (muxing.Stream, error) {
	s, err := m.session.AcceptStream()
	if err != nil {
		return nil, err
	}
	return stream{s}, nil
}

func (m *Muxer) OpenStream() (muxing.Stream, error) {
	s, err := m.session.OpenStream()
	if err != nil {
		return nil, err
	}
	return stream{s}, nil
}

func (m *Muxer) Close() error {
	return m.session.Close()
}

// CloseGraceful initiates yamux's GoAway handshake (refuse new streams)
// and then blocks until the underlying connection closes.
func (m *Muxer) CloseGraceful() error {
	if err := m.session.GoAway(); err != nil {
		return err
	}
	<-m.session.CloseChan()
	return nil
}

func (m *Muxer) IsClosed() bool {
	return m.session.IsClosed()
}
