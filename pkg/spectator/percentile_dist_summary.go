package spectator

import "sync"

// PercentileDistributionSummary wraps a DistributionSummary with a set of
// per-bucket Counters, the distribution-summary analogue of
// PercentileTimer.
type PercentileDistributionSummary struct {
	registry *Registry
	id       Id
	min, max int64
	dist     *DistributionSummary

	mu       sync.Mutex
	counters [percentileBucketsLength]*Counter
}

func newPercentileDistSummary(r *Registry, id Id, min, max int64) *PercentileDistributionSummary {
	return &PercentileDistributionSummary{registry: r, id: id, min: min, max: max, dist: r.GetDistSummary(id)}
}

func (p *PercentileDistributionSummary) counterAt(index int) *Counter {
	p.mu.Lock()
	c := p.counters[index]
	if c == nil {
		counterID := p.id.WithPercentileTag(bucketTag('D', index))
		c = p.registry.GetCounter(counterID)
		p.counters[index] = c
	}
	p.mu.Unlock()
	return c
}

// Record records amount on both the underlying DistributionSummary and the
// bucket counter it falls into, clamping to [min, max] before bucketing.
// Negative amounts are ignored.
func (p *PercentileDistributionSummary) Record(amount int64) {
	if amount < 0 {
		return
	}
	p.dist.Record(float64(amount))
	restricted := amount
	if restricted < p.min {
		restricted = p.min
	}
	if restricted > p.max {
		restricted = p.max
	}
	index := PercentileBucketIndexOf(restricted)
	p.counterAt(index).Increment()
}

func (p *PercentileDistributionSummary) MeterId() Id { return p.id }
func (p *PercentileDistributionSummary) Count() int64 { return p.dist.Count() }
func (p *PercentileDistributionSummary) TotalAmount() float64 { return p.dist.TotalAmount() }
