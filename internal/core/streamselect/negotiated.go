package streamselect

import (
	"io"
	"sync"
)

// Negotiated is a byte stream whose in-band multistream-select handshake
// is either completed or, on the dialer side, optimistically pending
// confirmation of the single remaining candidate (Expecting). Reads and
// writes issued while Expecting transparently drive the pending
// confirmation read before becoming pass-through.
type Negotiated struct {
	io.ReadWriteCloser

	mu        sync.Mutex
	completed bool
	protocol  string
	ld        *LengthDelimited
	confirm   func() error // drives the pending read to completion; nil once completed
}

// Completed wraps an already-negotiated stream.
func Completed(rw io.ReadWriteCloser, protocol string) *Negotiated {
	return &Negotiated{ReadWriteCloser: rw, completed: true, protocol: protocol}
}

// Expecting wraps a stream whose dialer has optimistically sent a single
// protocol offer but not yet read back confirmation. confirm performs that
// read; it must be idempotent-safe to call at most once.
func Expecting(rw io.ReadWriteCloser, protocol string, confirm func() error) *Negotiated {
	return &Negotiated{ReadWriteCloser: rw, protocol: protocol, confirm: confirm}
}

// Protocol returns the negotiated protocol name.
func (n *Negotiated) Protocol() string { return n.protocol }

// Complete blocks until the optimistic confirmation has been read (a
// no-op if already completed).
func (n *Negotiated) Complete() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.completeLocked()
}

func (n *Negotiated) completeLocked() error {
	if n.completed {
		return nil
	}
	if n.confirm != nil {
		if err := n.confirm(); err != nil {
			return err
		}
	}
	n.completed = true
	return nil
}

// Read drives the pending confirmation (if any) before delegating.
func (n *Negotiated) Read(p []byte) (int, error) {
	n.mu.Lock()
	if err := n.completeLocked(); err != nil {
		n.mu.Unlock()
		return 0, err
	}
	n.mu.Unlock()
	return n.ReadWriteCloser.Read(p)
}

// Write passes through unchanged; the dialer's optimistic offer has
// already been flushed before Expecting was constructed.
func (n *Negotiated) Write(p []byte) (int, error) {
	return n.ReadWriteCloser.Write(p)
}
