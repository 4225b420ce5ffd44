package bridge

import "time"

type Config struct {
	// ConnectTimeout bounds one BridgeConnect/BridgeStatus round trip
	// and the relay's own dial-out to the destination.
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{ConnectTimeout: 10 * time.Second}
}

type Option func(*Config)

func WithConnectTimeout(d time.Duration) Option { return func(c *Config) { c.ConnectTimeout = d } }

func newConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
