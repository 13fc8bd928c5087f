package spectator

// Counter tracks a rate of events. Add accumulates a delta; Measure
// reports and resets the accumulated count, so the published value is
// always "events since the last publish".
type Counter struct {
	meterBase
	count   atomicFloat64
	countID *Id
}

func newCounter(id Id) *Counter {
	return &Counter{meterBase: newMeterBase(id)}
}

// Increment adds 1 to the counter.
func (c *Counter) Increment() { c.Add(1) }

// Add accumulates delta. Negative deltas are ignored, matching the
// original implementation's guard against decreasing a monotonically
// increasing rate counter.
func (c *Counter) Add(delta float64) {
	c.touch()
	if delta < 0 {
		return
	}
	c.count.add(delta)
}

// Count returns the current (unreset) accumulated value.
func (c *Counter) Count() float64 { return c.count.load() }

func (c *Counter) Measure(out *Measurements) {
	count := c.count.exchange(0)
	if count > 0 {
		if c.countID == nil {
			id := c.id.WithDefaultStat(refs.count)
			c.countID = &id
		}
		*out = append(*out, Measurement{Id: *c.countID, Value: count})
	}
}
