// Package swarm drives the process-wide event loop: it owns one
// transport stack, one pool.Pool, and the single NetworkBehavior a
// caller wires in, and turns their independent event streams into one
// ordered Event channel.
//
// A Swarm does three things a caller can't do by reaching into pool.Pool
// directly: it gates outbound dials by PeerCondition so a caller can ask
// for "only if not already connected" without racing its own dial
// bookkeeping, it fans every listener's incoming connections into the
// same pool the dialer uses, and it drives NetworkBehavior.Poll on every
// loop iteration so a behavior's own timers (e.g. a periodic ping) fire
// without a caller having to pump anything.
//
// Grounded on original_source/volans-swarm/src/server.rs (the event
// loop shape: pending_swarm_events queue, listener SelectAll, behavior
// event handling) and src/dial_opts.rs (DialOpts, PeerCondition).
package swarm
