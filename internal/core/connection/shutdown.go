package connection

import "time"

// ShutdownKind discriminates a Shutdown value's form.
type ShutdownKind int

const (
	// ShutdownNone: the connection stays open indefinitely.
	ShutdownNone ShutdownKind = iota
	// ShutdownAsap: close as soon as the active stream counter reaches
	// zero and no handler reports KeepAlive.
	ShutdownAsap
	// ShutdownLater: at Deadline, Connection.Run switches to ShutdownAsap,
	// so closing still waits for in-flight negotiations and KeepAlive.
	ShutdownLater
)

// Shutdown tracks when a connection should close, mirroring the
// original's Shutdown enum (None/Asap/Later(Instant)).
type Shutdown struct {
	Kind     ShutdownKind
	Deadline time.Time
}

// Extend moves a ShutdownLater deadline further out. From ShutdownNone it
// sets a deadline d from now; while a deadline is pending, each call adds
// d/2 to the time remaining. The total is not capped: every further call
// pushes the deadline out by another d/2.
func (s *Shutdown) Extend(d time.Duration) {
	now := time.Now()
	switch s.Kind {
	case ShutdownNone:
		s.Kind = ShutdownLater
		s.Deadline = now.Add(d)
	case ShutdownLater:
		remaining := s.Deadline.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		s.Deadline = now.Add(remaining + d/2)
	case ShutdownAsap:
		// already closing as soon as possible; do not extend.
	}
}

// Timer returns a channel that fires at the shutdown deadline, or nil
// if this Shutdown has no deadline (None or Asap, the latter decided by
// the active-stream count instead of a timer).
func (s Shutdown) Timer() <-chan time.Time {
	if s.Kind != ShutdownLater {
		return nil
	}
	d := time.Until(s.Deadline)
	if d < 0 {
		d = 0
	}
	return time.After(d)
}
