package spectator

import (
	"math"
	"sync"
)

// MonotonicSampled derives a rate from a sequence of (value, timestamp)
// pairs taken from an externally-maintained monotonic counter, rather than
// from evenly-spaced publish intervals. Out-of-order samples (an
// incoming timestamp older than the last accepted one) are dropped.
type MonotonicSampled struct {
	meterBase

	mu       sync.Mutex
	init     bool
	value    float64
	prevVal  float64
	ts       int64
	prevTS   int64
	countID  *Id
}

func newMonotonicSampled(id Id) *MonotonicSampled {
	return &MonotonicSampled{meterBase: newMeterBase(id)}
}

// Set records a new (amount, tsNanos) sample, ignoring out-of-order points.
func (m *MonotonicSampled) Set(amount float64, tsNanos int64) {
	m.touch()
	m.mu.Lock()
	defer m.mu.Unlock()

	if tsNanos < m.ts {
		return
	}
	if m.init {
		m.prevVal = m.value
		m.prevTS = m.ts
	}
	m.value = amount
	m.ts = tsNanos
}

// SampledRate returns the rate implied by the two most recent samples, or
// NaN until the first Measure has established a baseline.
func (m *MonotonicSampled) SampledRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.init {
		return math.NaN()
	}
	deltaT := float64(m.ts-m.prevTS) / 1e9
	if m.value < m.prevVal {
		return (monotonicCounterWrapConstant - m.prevVal + m.value + 1) / deltaT
	}
	return (m.value - m.prevVal) / deltaT
}

func (m *MonotonicSampled) Measure(out *Measurements) {
	rate := m.SampledRate()

	m.mu.Lock()
	m.prevVal = m.value
	m.prevTS = m.ts
	m.init = true
	m.mu.Unlock()

	if rate > 0 {
		if m.countID == nil {
			id := m.id.WithStat("count")
			m.countID = &id
		}
		*out = append(*out, Measurement{Id: *m.countID, Value: rate})
	}
}
