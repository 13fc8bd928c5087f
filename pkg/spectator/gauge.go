package spectator

import (
	"math"
	"sync/atomic"
	"time"
)

const gaugeMinTTL = 5 * time.Second

func gaugeTTLNanos(ttl time.Duration) int64 {
	if ttl < gaugeMinTTL {
		return gaugeMinTTL.Nanoseconds()
	}
	return ttl.Nanoseconds()
}

// Gauge reports the most recently Set value, as long as a value was set
// within the configured TTL; once a gauge has gone untouched longer than
// its TTL it stops being published until Set again (the first measure
// after it expires clears the stored value to NaN and emits nothing).
type Gauge struct {
	meterBase
	ttlNanos int64 // atomic
	value    atomicFloat64
	gaugeID  *Id
}

func newGauge(id Id, ttl time.Duration) *Gauge {
	g := &Gauge{meterBase: newMeterBase(id), ttlNanos: gaugeTTLNanos(ttl)}
	g.value.store(math.NaN())
	return g
}

// Set records value and resets the TTL clock.
func (g *Gauge) Set(value float64) {
	g.touch()
	g.value.store(value)
}

// Get returns the current stored value without consulting the TTL.
func (g *Gauge) Get() float64 { return g.value.load() }

// SetTTL changes the gauge's expiry window.
func (g *Gauge) SetTTL(ttl time.Duration) {
	atomic.StoreInt64(&g.ttlNanos, gaugeTTLNanos(ttl))
}

// HasExpired reports whether now is further from the last Set than the TTL.
func (g *Gauge) HasExpired(now int64) bool {
	ago := now - g.Updated()
	return ago > atomic.LoadInt64(&g.ttlNanos)
}

func (g *Gauge) measureAt(out *Measurements, now int64) {
	if g.HasExpired(now) {
		g.value.store(math.NaN())
		return
	}
	value := g.value.load()
	if math.IsNaN(value) {
		return
	}
	if g.gaugeID == nil {
		id := g.id.WithDefaultStat(refs.gauge)
		g.gaugeID = &id
	}
	*out = append(*out, Measurement{Id: *g.gaugeID, Value: value})
}

func (g *Gauge) Measure(out *Measurements) { g.measureAt(out, time.Now().UnixNano()) }
