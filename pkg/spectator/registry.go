package spectator

import (
	"time"
)

// MeasurementsCallback is invoked with every batch of measurements
// produced by a Registry drain, letting callers (the Publisher) observe
// exactly what is about to be shipped.
type MeasurementsCallback func(Measurements)

// Registry owns every meter the daemon has created, sharded by meter type
// so that each type's get-or-create path only ever touches its own lock.
// It is safe for concurrent use by many ingest goroutines and the single
// publisher goroutine that periodically drains it.
type Registry struct {
	meterTTL       int64 // nanos
	ageGaugeLimit  int
	defaultGaugeTTL time.Duration

	commonTags      Tags
	commonTagsMu    commonTagsMutex

	counters    *meterMap[*Counter]
	distSums    *meterMap[*DistributionSummary]
	gauges      *meterMap[*Gauge]
	maxGauges   *meterMap[*MaxGauge]
	monoCounters     *meterMap[*MonotonicCounter]
	monoCountersUint *meterMap[*MonotonicCounterUint]
	monoSampled      *meterMap[*MonotonicSampled]
	timers      *meterMap[*Timer]
	ageGauges   *meterMap[*AgeGauge]

	callbacks []MeasurementsCallback
}

// RegistryConfig carries the subset of daemon configuration the Registry
// needs directly (TTLs, common tags); the rest of the daemon config lives
// in internal/config and is not needed below the publisher boundary.
type RegistryConfig struct {
	MeterTTL      time.Duration
	GaugeTTL      time.Duration
	AgeGaugeLimit int
	CommonTags    map[string]string
}

func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		meterTTL:        cfg.MeterTTL.Nanoseconds(),
		ageGaugeLimit:   cfg.AgeGaugeLimit,
		defaultGaugeTTL: cfg.GaugeTTL,
		commonTags:      NewTags(cfg.CommonTags),

		counters:         newMeterMap[*Counter](),
		distSums:         newMeterMap[*DistributionSummary](),
		gauges:           newMeterMap[*Gauge](),
		maxGauges:        newMeterMap[*MaxGauge](),
		monoCounters:     newMeterMap[*MonotonicCounter](),
		monoCountersUint: newMeterMap[*MonotonicCounterUint](),
		monoSampled:      newMeterMap[*MonotonicSampled](),
		timers:           newMeterMap[*Timer](),
		ageGauges:        newMeterMap[*AgeGauge](),
	}
	return r
}

// CreateId builds an Id from name and tags. The registry's current common
// tags are NOT merged in here: they are applied once, at
// publish-encoding time, to every measurement in a batch (see
// pkg/publisher), rather than duplicated into every meter's identity.
func (r *Registry) CreateId(name string, tags Tags) Id {
	return NewId(name, tags)
}

// CommonTags returns a snapshot of the currently configured common tags.
func (r *Registry) CommonTags() Tags {
	r.commonTagsMu.RLock()
	defer r.commonTagsMu.RUnlock()
	return r.commonTags.Clone()
}

// UpdateCommonTag sets or overwrites a common tag applied to every
// published measurement.
func (r *Registry) UpdateCommonTag(key, value string) {
	r.commonTagsMu.Lock()
	defer r.commonTagsMu.Unlock()
	r.commonTags.Add(key, value)
}

// EraseCommonTag removes a common tag.
func (r *Registry) EraseCommonTag(key string) {
	r.commonTagsMu.Lock()
	defer r.commonTagsMu.Unlock()
	t := Tags{}
	r.commonTags.ForEach(func(k, v string) {
		if k != key {
			t.Add(k, v)
		}
	})
	r.commonTags = t
}

// OnMeasurements registers fn to be called with every drain's batch.
func (r *Registry) OnMeasurements(fn MeasurementsCallback) {
	r.callbacks = append(r.callbacks, fn)
}

func (r *Registry) GetCounter(id Id) *Counter {
	return r.counters.getOrCreate(id, func() *Counter { return newCounter(id) })
}

func (r *Registry) GetMonotonicCounter(id Id) *MonotonicCounter {
	return r.monoCounters.getOrCreate(id, func() *MonotonicCounter { return newMonotonicCounter(id) })
}

func (r *Registry) GetMonotonicCounterUint(id Id) *MonotonicCounterUint {
	return r.monoCountersUint.getOrCreate(id, func() *MonotonicCounterUint { return newMonotonicCounterUint(id) })
}

func (r *Registry) GetMonotonicSampled(id Id) *MonotonicSampled {
	return r.monoSampled.getOrCreate(id, func() *MonotonicSampled { return newMonotonicSampled(id) })
}

func (r *Registry) GetDistSummary(id Id) *DistributionSummary {
	return r.distSums.getOrCreate(id, func() *DistributionSummary { return newDistSummary(id) })
}

func (r *Registry) GetGauge(id Id) *Gauge {
	return r.gauges.getOrCreate(id, func() *Gauge { return newGauge(id, r.defaultGaugeTTL) })
}

func (r *Registry) GetGaugeTTL(id Id, ttl time.Duration) *Gauge {
	return r.gauges.getOrCreate(id, func() *Gauge { return newGauge(id, ttl) })
}

func (r *Registry) GetMaxGauge(id Id) *MaxGauge {
	return r.maxGauges.getOrCreate(id, func() *MaxGauge { return newMaxGauge(id) })
}

func (r *Registry) GetTimer(id Id) *Timer {
	return r.timers.getOrCreate(id, func() *Timer { return newTimer(id) })
}

// GetAgeGauge returns the age gauge for id. Once ageGaugeLimit (when
// positive) age gauges exist, a new id gets a detached AgeGauge that is
// neither retained nor published.
func (r *Registry) GetAgeGauge(id Id) *AgeGauge {
	mm := r.ageGauges
	key := id.Key()
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if g, ok := mm.meters[key]; ok {
		return g
	}
	g := newAgeGauge(id)
	if r.ageGaugeLimit > 0 && len(mm.meters) >= r.ageGaugeLimit {
		return g
	}
	mm.meters[key] = g
	return g
}

func (r *Registry) PercentileTimer(id Id, min, max time.Duration) *PercentileTimer {
	return newPercentileTimer(r, id, min, max)
}

func (r *Registry) PercentileDistSummary(id Id, min, max int64) *PercentileDistributionSummary {
	return newPercentileDistSummary(r, id, min, max)
}

func ageGaugeExpiry(expirable, int64, int64) bool { return false }

func gaugeExpiry(m expirable, now, _ int64) bool { return m.(*Gauge).HasExpired(now) }

// Measurements drains every meter type, runs registered callbacks, and
// returns the batch. Expired meters (per meterTTL, or per Gauge's own TTL)
// are skipped rather than measured.
func (r *Registry) Measurements() Measurements {
	now := time.Now().UnixNano()
	var out Measurements

	r.counters.measure(&out, now, r.meterTTL, defaultExpiry)
	r.distSums.measure(&out, now, r.meterTTL, defaultExpiry)
	r.gauges.measure(&out, now, r.meterTTL, gaugeExpiry)
	r.maxGauges.measure(&out, now, r.meterTTL, defaultExpiry)
	r.monoCounters.measure(&out, now, r.meterTTL, defaultExpiry)
	r.monoCountersUint.measure(&out, now, r.meterTTL, defaultExpiry)
	r.monoSampled.measure(&out, now, r.meterTTL, defaultExpiry)
	r.timers.measure(&out, now, r.meterTTL, defaultExpiry)
	r.ageGauges.measure(&out, now, r.meterTTL, ageGaugeExpiry)

	r.registrySize().Record(float64(len(out)))

	for _, cb := range r.callbacks {
		cb(out)
	}
	return out
}

// registrySize is the internal self-metric tracking how many measurements
// each drain produces, recorded after the batch is built so it reflects
// this tick's size on the next drain.
func (r *Registry) registrySize() *DistributionSummary {
	id := r.CreateId("spectator.registrySize", Tags{}).WithTag("owner", "spectatord")
	return r.GetDistSummary(id)
}

// RemoveExpired sweeps every meter type and deletes entries past their
// TTL, returning (expired, total) across all types.
func (r *Registry) RemoveExpired() (expired, total int) {
	for _, mm := range []func() (int, int){
		func() (int, int) { return r.counters.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.distSums.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.gauges.removeExpired(r.meterTTL, gaugeExpiry) },
		func() (int, int) { return r.maxGauges.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.monoCounters.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.monoCountersUint.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.monoSampled.removeExpired(r.meterTTL, defaultExpiry) },
		func() (int, int) { return r.timers.removeExpired(r.meterTTL, defaultExpiry) },
	} {
		e, t := mm()
		expired += e
		total += t
	}
	total += r.ageGauges.size()
	return expired, total
}

// Size returns the total number of meters held across every type.
func (r *Registry) Size() int {
	return r.counters.size() + r.distSums.size() + r.gauges.size() + r.maxGauges.size() +
		r.monoCounters.size() + r.monoCountersUint.size() + r.monoSampled.size() +
		r.timers.size() + r.ageGauges.size()
}

// The accessors below exist for the admin HTTP surface's GET /metrics and
// DELETE /metrics/{type}[/{id}] endpoints.

func (r *Registry) Counters() []*Counter                           { return r.counters.values() }
func (r *Registry) DistSummaries() []*DistributionSummary          { return r.distSums.values() }
func (r *Registry) Gauges() []*Gauge                               { return r.gauges.values() }
func (r *Registry) MaxGauges() []*MaxGauge                         { return r.maxGauges.values() }
func (r *Registry) MonotonicCounters() []*MonotonicCounter         { return r.monoCounters.values() }
func (r *Registry) MonotonicCountersUint() []*MonotonicCounterUint { return r.monoCountersUint.values() }
func (r *Registry) MonotonicSampled() []*MonotonicSampled          { return r.monoSampled.values() }
func (r *Registry) Timers() []*Timer                               { return r.timers.values() }
func (r *Registry) AgeGauges() []*AgeGauge                         { return r.ageGauges.values() }

// meterTypeCode matches the line-protocol type codes used by the admin
// server's DELETE /metrics/{type}[/{id}] path (spec.md §EXTERNAL
// INTERFACES).
const (
	TypeCounter          = "c"
	TypeDistSummary      = "d"
	TypeGauge            = "g"
	TypeMaxGauge         = "m"
	TypeMonotonicCounter = "C"
	TypeMonotonicCounterUint = "U"
	TypeMonotonicSampled = "X"
	TypeTimer            = "t"
	TypeAgeGauge         = "A"
)

// DeleteMeter removes a single meter of the given type by id, returning
// whether it existed.
func (r *Registry) DeleteMeter(meterType string, id Id) bool {
	switch meterType {
	case TypeCounter:
		return r.counters.deleteOne(id)
	case TypeDistSummary:
		return r.distSums.deleteOne(id)
	case TypeGauge:
		return r.gauges.deleteOne(id)
	case TypeMaxGauge:
		return r.maxGauges.deleteOne(id)
	case TypeMonotonicCounter:
		return r.monoCounters.deleteOne(id)
	case TypeMonotonicCounterUint:
		return r.monoCountersUint.deleteOne(id)
	case TypeMonotonicSampled:
		return r.monoSampled.deleteOne(id)
	case TypeTimer:
		return r.timers.deleteOne(id)
	case TypeAgeGauge:
		return r.ageGauges.deleteOne(id)
	default:
		return false
	}
}

// DeleteAllMeters clears every meter of the given type.
func (r *Registry) DeleteAllMeters(meterType string) {
	switch meterType {
	case TypeCounter:
		r.counters.deleteAll()
	case TypeDistSummary:
		r.distSums.deleteAll()
	case TypeGauge:
		r.gauges.deleteAll()
	case TypeMaxGauge:
		r.maxGauges.deleteAll()
	case TypeMonotonicCounter:
		r.monoCounters.deleteAll()
	case TypeMonotonicCounterUint:
		r.monoCountersUint.deleteAll()
	case TypeMonotonicSampled:
		r.monoSampled.deleteAll()
	case TypeTimer:
		r.timers.deleteAll()
	case TypeAgeGauge:
		r.ageGauges.deleteAll()
	}
}
