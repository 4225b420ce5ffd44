package bandwidth

import "time"

// Config controls which dimensions Counter tracks.
type Config struct {
	Enabled         bool
	TrackByPeer     bool
	TrackByProtocol bool
	IdleTimeout     time.Duration
	TrimInterval    time.Duration
}

// DefaultConfig tracks totals, peers, and protocols; Module's ticker drops
// entries idle for an hour, checking every ten minutes.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		TrackByPeer:     true,
		TrackByProtocol: true,
		IdleTimeout:     time.Hour,
		TrimInterval:    10 * time.Minute,
	}
}

// Stats is a point-in-time snapshot of accumulated bytes and EWMA rate, in
// both directions, for one dimension (total, one peer, or one protocol).
type Stats struct {
	TotalIn  int64
	TotalOut int64
	RateIn   float64
	RateOut  float64
}

// Counter accumulates inbound/outbound byte counts across every stream of
// every connection, broken down by total, remote peer, and protocol id.
type Counter struct {
	config Config

	totalIn  *Meter
	totalOut *Meter

	protocolIn  MeterRegistry
	protocolOut MeterRegistry

	peerIn  MeterRegistry
	peerOut MeterRegistry
}

// NewCounter creates a bandwidth counter under the given config.
func NewCounter(config Config) *Counter {
	return &Counter{
		config:   config,
		totalIn:  NewMeter(),
		totalOut: NewMeter(),
	}
}

// LogSentStream records size bytes written on a stream negotiated as proto
// with the given remote peer (its short string form).
func (c *Counter) LogSentStream(size int64, proto string, peer string) {
	if !c.config.Enabled || size <= 0 {
		return
	}
	c.totalOut.Mark(uint64(size))
	if c.config.TrackByProtocol {
		c.protocolOut.Get(proto).Mark(uint64(size))
	}
	if c.config.TrackByPeer {
		c.peerOut.Get(peer).Mark(uint64(size))
	}
}

// LogRecvStream records size bytes read from a stream negotiated as proto
// with the given remote peer (its short string form).
func (c *Counter) LogRecvStream(size int64, proto string, peer string) {
	if !c.config.Enabled || size <= 0 {
		return
	}
	c.totalIn.Mark(uint64(size))
	if c.config.TrackByProtocol {
		c.protocolIn.Get(proto).Mark(uint64(size))
	}
	if c.config.TrackByPeer {
		c.peerIn.Get(peer).Mark(uint64(size))
	}
}

// GetTotals returns the counter's aggregate in/out statistics.
func (c *Counter) GetTotals() Stats {
	inSnap := c.totalIn.Snapshot()
	outSnap := c.totalOut.Snapshot()
	return Stats{
		TotalIn:  int64(inSnap.Total),
		TotalOut: int64(outSnap.Total),
		RateIn:   inSnap.Rate,
		RateOut:  outSnap.Rate,
	}
}

// GetForPeer returns the statistics tracked for one peer, zero-valued if
// the peer has never been seen.
func (c *Counter) GetForPeer(peer string) Stats {
	var stats Stats
	if inMeter, ok := c.peerIn.Load(peer); ok {
		snap := inMeter.Snapshot()
		stats.TotalIn = int64(snap.Total)
		stats.RateIn = snap.Rate
	}
	if outMeter, ok := c.peerOut.Load(peer); ok {
		snap := outMeter.Snapshot()
		stats.TotalOut = int64(snap.Total)
		stats.RateOut = snap.Rate
	}
	return stats
}

// GetForProtocol returns the statistics tracked for one protocol id.
func (c *Counter) GetForProtocol(proto string) Stats {
	var stats Stats
	if inMeter, ok := c.protocolIn.Load(proto); ok {
		snap := inMeter.Snapshot()
		stats.TotalIn = int64(snap.Total)
		stats.RateIn = snap.Rate
	}
	if outMeter, ok := c.protocolOut.Load(proto); ok {
		snap := outMeter.Snapshot()
		stats.TotalOut = int64(snap.Total)
		stats.RateOut = snap.Rate
	}
	return stats
}

// GetByPeer returns every tracked peer's statistics, keyed by peer short
// string.
func (c *Counter) GetByPeer() map[string]Stats {
	peers := make(map[string]Stats)
	c.peerIn.ForEach(func(key string, meter *Meter) {
		snap := meter.Snapshot()
		stat := peers[key]
		stat.TotalIn = int64(snap.Total)
		stat.RateIn = snap.Rate
		peers[key] = stat
	})
	c.peerOut.ForEach(func(key string, meter *Meter) {
		snap := meter.Snapshot()
		stat := peers[key]
		stat.TotalOut = int64(snap.Total)
		stat.RateOut = snap.Rate
		peers[key] = stat
	})
	return peers
}

// GetByProtocol returns every tracked protocol's statistics.
func (c *Counter) GetByProtocol() map[string]Stats {
	protocols := make(map[string]Stats)
	c.protocolIn.ForEach(func(key string, meter *Meter) {
		snap := meter.Snapshot()
		stat := protocols[key]
		stat.TotalIn = int64(snap.Total)
		stat.RateIn = snap.Rate
		protocols[key] = stat
	})
	c.protocolOut.ForEach(func(key string, meter *Meter) {
		snap := meter.Snapshot()
		stat := protocols[key]
		stat.TotalOut = int64(snap.Total)
		stat.RateOut = snap.Rate
		protocols[key] = stat
	})
	return protocols
}

// Reset clears every tracked meter.
func (c *Counter) Reset() {
	c.totalIn.Reset()
	c.totalOut.Reset()
	c.protocolIn.Clear()
	c.protocolOut.Clear()
	c.peerIn.Clear()
	c.peerOut.Clear()
}

// TrimIdle drops per-peer/per-protocol entries that have seen no traffic
// since the given time.
func (c *Counter) TrimIdle(since time.Time) {
	c.peerIn.TrimIdle(since)
	c.peerOut.TrimIdle(since)
	c.protocolIn.TrimIdle(since)
	c.protocolOut.TrimIdle(since)
}

// PeerCount returns the number of distinct peers currently tracked.
func (c *Counter) PeerCount() int {
	in, out := c.peerIn.Count(), c.peerOut.Count()
	if in > out {
		return in
	}
	return out
}

// ProtocolCount returns the number of distinct protocols currently tracked.
func (c *Counter) ProtocolCount() int {
	in, out := c.protocolIn.Count(), c.protocolOut.Count()
	if in > out {
		return in
	}
	return out
}
