// Package bandwidth tracks inbound/outbound byte counts across every
// connection's streams, broken down by total, remote peer, and protocol
// id, with an EWMA rate per dimension.
//
// A Counter is fed by the per-connection stream wrapper in
// internal/core/connection, which calls LogSentStream/LogRecvStream on
// every Write/Read once a stream has negotiated its protocol. For a
// Counter provided by Module, idle per-peer/per-protocol entries are
// trimmed on a ticker so long-lived processes don't accumulate unbounded
// metadata for peers that have since disconnected; the Counter that
// swarm.New builds for its connections is not trimmed.
package bandwidth
