package spectator

import (
	"math"
	"sync/atomic"
)

const (
	monotonicCounterUintOverflow = 9.223372e+18 // 2^63, deltas beyond this are reported as zero
	monotonicCounterUintMax      = float64(math.MaxUint64)
)

// MonotonicCounterUint tracks an externally-maintained monotonically
// increasing unsigned counter that may wrap at 2^64 (e.g. a hardware or
// kernel counter). Semantics otherwise match MonotonicCounter.
type MonotonicCounterUint struct {
	meterBase
	init    atomic.Bool
	value   atomic.Uint64
	prev    atomic.Uint64
	countID *Id
}

func newMonotonicCounterUint(id Id) *MonotonicCounterUint {
	return &MonotonicCounterUint{meterBase: newMeterBase(id)}
}

// Set records the latest observed absolute value.
func (m *MonotonicCounterUint) Set(amount uint64) {
	m.touch()
	m.value.Store(amount)
}

// Delta returns the change since the previous Measure call, correctly
// accounting for a single 2^64 wraparound, or NaN before the first Measure.
func (m *MonotonicCounterUint) Delta() float64 {
	if !m.init.Load() {
		return math.NaN()
	}
	prev := m.prev.Load()
	curr := m.value.Load()
	if curr < prev {
		return monotonicCounterUintMax - float64(prev) + float64(curr) + 1
	}
	return float64(curr - prev)
}

func (m *MonotonicCounterUint) Measure(out *Measurements) {
	delta := m.Delta()
	m.prev.Store(m.value.Load())
	m.init.Store(true)

	if delta > 0 {
		if m.countID == nil {
			id := m.id.WithDefaultStat(refs.count)
			m.countID = &id
		}
		if delta > monotonicCounterUintOverflow {
			*out = append(*out, Measurement{Id: *m.countID, Value: 0})
		} else {
			*out = append(*out, Measurement{Id: *m.countID, Value: delta})
		}
	}
}
