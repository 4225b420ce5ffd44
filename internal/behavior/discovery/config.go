// Package discovery finds peers on the local network via mDNS, the
// zero-configuration rendezvous mechanism the original relies on before
// any address book/bootstrap list is populated. Grounded on the
// teacher's own use of mDNS-style local discovery (internal/core/discovery,
// deleted as unwired) and reconstructed here against
// github.com/pion/mdns/v2's public API.
package discovery

import "time"

// ServiceName is the mDNS service instance name this module both
// advertises and queries.
const ServiceName = "_volans-discovery._udp"

type Config struct {
	// QueryInterval is how often an outstanding mDNS query is repeated.
	QueryInterval time.Duration
	// AssumedPort is the TCP port appended to an mDNS answer's address,
	// since bare mDNS address resolution carries no port of its own.
	// Peers on the same deployment are expected to share one listen
	// port; a mixed-port deployment needs the subsequent identify
	// exchange to discover any others.
	AssumedPort int
}

func DefaultConfig() Config {
	return Config{QueryInterval: 30 * time.Second, AssumedPort: 4001}
}

type Option func(*Config)

func WithQueryInterval(d time.Duration) Option { return func(c *Config) { c.QueryInterval = d } }
func WithAssumedPort(p int) Option             { return func(c *Config) { c.AssumedPort = p } }

func newConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
