package spectator

import "math"

var maxGaugeMinValue = math.Inf(-1)

// MaxGauge reports the largest value Update'd since the last publish,
// resetting after each Measure.
type MaxGauge struct {
	meterBase
	value atomicFloat64
	maxID *Id
}

func newMaxGauge(id Id) *MaxGauge {
	m := &MaxGauge{meterBase: newMeterBase(id)}
	m.value.store(maxGaugeMinValue)
	return m
}

// Update records value if it exceeds the current max.
func (m *MaxGauge) Update(value float64) {
	m.touch()
	m.value.updateMax(value)
}

// Set is a synonym for Update, matching the Gauge interface shape.
func (m *MaxGauge) Set(value float64) { m.Update(value) }

// Get returns the current max, or NaN if nothing has been recorded since
// the last Measure.
func (m *MaxGauge) Get() float64 {
	v := m.value.load()
	if v != maxGaugeMinValue {
		return v
	}
	return math.NaN()
}

func (m *MaxGauge) Measure(out *Measurements) {
	value := m.value.exchange(maxGaugeMinValue)
	if value == maxGaugeMinValue {
		return
	}
	if m.maxID == nil {
		id := m.id.WithStat("max")
		m.maxID = &id
	}
	*out = append(*out, Measurement{Id: *m.maxID, Value: value})
}
