package ping

import "time"

// Config tunes the ping protocol's timing, matching the original's
// Config{timeout, interval, failures} defaults of 1s/10s/3.
type Config struct {
	// Timeout bounds a single ping round trip.
	Timeout time.Duration
	// Interval is how long to wait after a ping round trip (successful
	// or failed) before sending the next one; the first ping is sent as
	// soon as the connection opens.
	Interval time.Duration
	// MaxFailures is how many consecutive failures close the connection.
	MaxFailures int
}

// DefaultConfig matches the original's Default impl.
func DefaultConfig() Config {
	return Config{
		Timeout:     1 * time.Second,
		Interval:    10 * time.Second,
		MaxFailures: 3,
	}
}

// Option configures a Config at construction time.
type Option func(*Config)

func WithTimeout(d time.Duration) Option  { return func(c *Config) { c.Timeout = d } }
func WithInterval(d time.Duration) Option { return func(c *Config) { c.Interval = d } }
func WithMaxFailures(n int) Option        { return func(c *Config) { c.MaxFailures = n } }

func newConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
