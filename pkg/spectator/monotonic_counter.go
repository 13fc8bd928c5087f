package spectator

import "math"

const monotonicCounterWrapConstant = float64(math.MaxUint64)

// MonotonicCounter tracks an externally-maintained monotonically
// increasing signed counter (e.g. a value read from /proc). Set records
// the latest observed absolute value; Measure reports the delta since the
// previous Measure call.
type MonotonicCounter struct {
	meterBase
	init    bool
	value   atomicFloat64
	prev    atomicFloat64
	countID *Id
}

func newMonotonicCounter(id Id) *MonotonicCounter {
	return &MonotonicCounter{meterBase: newMeterBase(id)}
}

// Set records the latest observed absolute value.
func (m *MonotonicCounter) Set(amount float64) {
	m.touch()
	m.value.store(amount)
}

// Delta returns the change since the previous Measure call, or NaN before
// the first Measure. A decrease is treated as a counter-wraparound event,
// matching the upstream implementation's wraparound arithmetic even though
// it is only meaningful for unsigned sources.
func (m *MonotonicCounter) Delta() float64 {
	if !m.init {
		return math.NaN()
	}
	prev := m.prev.load()
	curr := m.value.load()
	if curr < prev {
		return monotonicCounterWrapConstant - prev + curr + 1
	}
	return curr - prev
}

func (m *MonotonicCounter) Measure(out *Measurements) {
	delta := m.Delta()
	m.prev.store(m.value.load())
	m.init = true

	if delta > 0 {
		if m.countID == nil {
			id := m.id.WithDefaultStat(refs.count)
			m.countID = &id
		}
		*out = append(*out, Measurement{Id: *m.countID, Value: delta})
	}
}
