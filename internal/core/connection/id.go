package connection

import "sync/atomic"

// ID identifies one physical connection for the lifetime of the
// process. Grounded on original_source/volans-swarm/src/connection.rs's
// ConnectionId, a process-unique monotonically increasing counter.
type ID uint64

var nextID atomic.Uint64

// NewID returns the next process-unique connection id.
func NewID() ID {
	return ID(nextID.Add(1))
}
