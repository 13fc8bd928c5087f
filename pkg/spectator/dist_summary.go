package spectator

import "sync/atomic"

// DistributionSummary tracks the distribution of a sampled value (e.g.
// payload size). Each Measure reports four derived meters: count, total,
// totalOfSquares (for computing standard deviation downstream), and max;
// all four reset to zero after each Measure.
type DistributionSummary struct {
	meterBase
	count   atomic.Int64
	total   atomicFloat64
	totalSq atomicFloat64
	max     atomicFloat64
	st      *distStats
}

func newDistSummary(id Id) *DistributionSummary {
	return &DistributionSummary{meterBase: newMeterBase(id)}
}

// Record adds a sample. Negative amounts are ignored.
func (d *DistributionSummary) Record(amount float64) {
	d.touch()
	if amount < 0 {
		return
	}
	d.count.Add(1)
	d.total.add(amount)
	d.totalSq.add(amount * amount)
	d.max.updateMax(amount)
}

// Count returns the current (unreset) sample count.
func (d *DistributionSummary) Count() int64 { return d.count.Load() }

// TotalAmount returns the current (unreset) sum of recorded amounts.
func (d *DistributionSummary) TotalAmount() float64 { return d.total.load() }

func (d *DistributionSummary) Measure(out *Measurements) {
	cnt := d.count.Swap(0)
	if cnt == 0 {
		return
	}
	if d.st == nil {
		d.st = newDistStats(d.id, refs.totalAmount)
	}
	total := d.total.exchange(0)
	totalSq := d.totalSq.exchange(0)
	mx := d.max.exchange(0)
	*out = append(*out,
		Measurement{Id: d.st.count, Value: float64(cnt)},
		Measurement{Id: d.st.total, Value: total},
		Measurement{Id: d.st.totalSq, Value: totalSq},
		Measurement{Id: d.st.max, Value: mx},
	)
}
