package spectator

import (
	"sync/atomic"
	"time"
)

// AgeGauge reports the time elapsed, in seconds, since UpdateLastSuccess
// was last called — useful for monitoring "time since last successful X"
// conditions (e.g. a backup, a cache refresh). Unlike every other meter
// type, AgeGauge is never expired by the Registry's TTL sweep: it is
// expected to keep reporting an ever-growing age if the underlying
// condition stops succeeding, which is the point of the meter.
type AgeGauge struct {
	meterBase
	lastSuccess int64 // unix nanos, atomic
	gaugeID     *Id
}

func newAgeGauge(id Id) *AgeGauge {
	return &AgeGauge{meterBase: newMeterBase(id)}
}

// UpdateLastSuccess records now (or time.Now() if zero) as the last time
// the monitored condition succeeded.
func (a *AgeGauge) UpdateLastSuccess(now int64) {
	if now == 0 {
		now = time.Now().UnixNano()
	}
	atomic.StoreInt64(&a.lastSuccess, now)
}

// LastSuccess returns the last recorded success timestamp, in unix nanos.
func (a *AgeGauge) LastSuccess() int64 { return atomic.LoadInt64(&a.lastSuccess) }

// Value returns the age in seconds relative to now (or time.Now() if zero).
func (a *AgeGauge) Value(now int64) float64 {
	if now == 0 {
		now = time.Now().UnixNano()
	}
	return float64(now-a.LastSuccess()) / 1e9
}

func (a *AgeGauge) Measure(out *Measurements) {
	if a.gaugeID == nil {
		id := a.id.WithDefaultStat(refs.gauge)
		a.gaugeID = &id
	}
	*out = append(*out, Measurement{Id: *a.gaugeID, Value: a.Value(0)})
}
