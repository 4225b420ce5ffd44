package ping

import (
	"time"

	"github.com/cariers/volans/pkg/peer"
)

// Result is the outcome of one ping round trip: either an RTT or the
// error that made it fail, mirroring the original's
// Result<Duration, Failure>.
type Result struct {
	RTT time.Duration
	Err error
}

// Event is what the Behavior surfaces: one peer's latest ping result.
type Event struct {
	Peer   peer.ID
	Result Result
}
