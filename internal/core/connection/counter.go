package connection

import "sync/atomic"

// ActiveStreamCounter tracks substreams currently being negotiated (not
// yet FullyNegotiated or failed), so a ShutdownAsap connection waits for
// in-flight negotiations to finish rather than cutting them off.
type ActiveStreamCounter struct {
	n atomic.Int32
}

func (c *ActiveStreamCounter) Inc() { c.n.Add(1) }
func (c *ActiveStreamCounter) Dec() { c.n.Add(-1) }
func (c *ActiveStreamCounter) Load() int32 { return c.n.Load() }
