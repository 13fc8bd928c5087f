package spectator

import (
	"sync/atomic"
	"time"
)

// Timer tracks the distribution of a duration (e.g. request latency).
// Measure reports count, total time, total-of-squares, and max, each in
// seconds (converted from the nanosecond accumulators), and resets all
// four after each call.
type Timer struct {
	meterBase
	count   atomic.Int64
	total   atomic.Int64 // nanos
	totalSq atomicFloat64
	max     atomic.Int64 // nanos
	st      *distStats
}

func newTimer(id Id) *Timer {
	return &Timer{meterBase: newMeterBase(id)}
}

// Record adds a sample. Negative durations are ignored.
func (t *Timer) Record(amount time.Duration) {
	t.touch()
	ns := amount.Nanoseconds()
	if ns < 0 {
		return
	}
	t.count.Add(1)
	t.total.Add(ns)
	t.totalSq.add(float64(ns) * float64(ns))
	updateMaxInt64(&t.max, ns)
}

// Count returns the current (unreset) sample count.
func (t *Timer) Count() int64 { return t.count.Load() }

// TotalTime returns the current (unreset) total recorded time, in nanos.
func (t *Timer) TotalTime() int64 { return t.total.Load() }

func (t *Timer) Measure(out *Measurements) {
	cnt := t.count.Swap(0)
	if cnt == 0 {
		return
	}
	if t.st == nil {
		t.st = newDistStats(t.id, refs.totalTime)
	}
	total := t.total.Swap(0)
	totalSq := t.totalSq.exchange(0)
	mx := t.max.Swap(0)
	*out = append(*out,
		Measurement{Id: t.st.count, Value: float64(cnt)},
		Measurement{Id: t.st.total, Value: float64(total) / 1e9},
		Measurement{Id: t.st.totalSq, Value: totalSq / 1e18},
		Measurement{Id: t.st.max, Value: float64(mx) / 1e9},
	)
}

// updateMaxInt64 atomically sets *a to v if v is greater than the current
// value.
func updateMaxInt64(a *atomic.Int64, v int64) {
	for {
		old := a.Load()
		if v <= old {
			return
		}
		if a.CompareAndSwap(old, v) {
			return
		}
	}
}
