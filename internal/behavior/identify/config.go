package identify

import "time"

// Config controls identify's refresh cadence and the bounded cache of
// observed peer info.
type Config struct {
	// RefreshInterval is how often an already-identified connection is
	// re-identified, picking up listen-address changes.
	RefreshInterval time.Duration
	// Timeout bounds one identify exchange.
	Timeout time.Duration
	// CacheSize bounds the number of peers whose Info is retained.
	CacheSize int
}

func DefaultConfig() Config {
	return Config{
		RefreshInterval: 5 * time.Minute,
		Timeout:         10 * time.Second,
		CacheSize:       256,
	}
}

type Option func(*Config)

func WithRefreshInterval(d time.Duration) Option { return func(c *Config) { c.RefreshInterval = d } }
func WithTimeout(d time.Duration) Option         { return func(c *Config) { c.Timeout = d } }
func WithCacheSize(n int) Option                 { return func(c *Config) { c.CacheSize = n } }

func newConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
