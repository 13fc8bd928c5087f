package spectator

import (
	"math"
	"sort"
)

// percentileBucketsLength is the fixed bucket count used by both
// PercentileTimer and PercentileDistributionSummary. The original bucket
// table is not available in source form; this is a self-consistent
// reconstruction satisfying the documented invariants (276 buckets,
// logarithmic spacing, able to bound both a timer's nanosecond range and a
// distribution summary's full int64 range). See DESIGN.md.
const percentileBucketsLength = 276

const (
	linearBucketCount  = 20
	decadeCount        = 64
	subBucketsPerDecade = 4
	firstDecadeExp      = 5
)

var subBucketFactors = [subBucketsPerDecade]float64{1.0, 1.25, 1.5, 1.75}

var percentileBucketValues [percentileBucketsLength]int64

func init() {
	for i := 0; i < linearBucketCount; i++ {
		percentileBucketValues[i] = int64(i)
	}
	idx := linearBucketCount
	for d := 0; d < decadeCount; d++ {
		base := math.Ldexp(1, firstDecadeExp+d)
		for _, f := range subBucketFactors {
			v := base * f
			if v >= math.MaxInt64 {
				percentileBucketValues[idx] = math.MaxInt64
			} else {
				percentileBucketValues[idx] = int64(v)
			}
			idx++
		}
	}
}

// PercentileBucket returns the upper bound value of the bucket that v
// falls into.
func PercentileBucket(v int64) int64 {
	return percentileBucketValues[PercentileBucketIndexOf(v)]
}

// PercentileBucketIndexOf returns the index of the smallest bucket whose
// value is >= v.
func PercentileBucketIndexOf(v int64) int {
	if v < 0 {
		return 0
	}
	i := sort.Search(percentileBucketsLength, func(i int) bool {
		return percentileBucketValues[i] >= v
	})
	if i >= percentileBucketsLength {
		return percentileBucketsLength - 1
	}
	return i
}

// PercentileBucketsLength returns the fixed bucket count.
func PercentileBucketsLength() int { return percentileBucketsLength }

// Percentile computes a single percentile value (0.0-100.0) from a
// histogram of per-bucket counts, interpolating linearly within the
// bucket containing the target rank.
func Percentile(counts [percentileBucketsLength]int64, p float64) float64 {
	results := make([]float64, 1)
	percentiles(counts, []float64{p}, results)
	return results[0]
}

// Percentiles computes every value in pcts (each 0.0-100.0) from counts
// and writes the results, in order, to results.
func Percentiles(counts [percentileBucketsLength]int64, pcts []float64, results *[]float64) {
	out := make([]float64, len(pcts))
	percentiles(counts, pcts, out)
	*results = out
}

func percentiles(counts [percentileBucketsLength]int64, pcts []float64, out []float64) {
	var total int64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	for i, p := range pcts {
		rank := p / 100.0 * float64(total)
		var cumulative int64
		var prevBound int64
		found := false
		for b, c := range counts {
			if c == 0 {
				continue
			}
			cumulative += c
			if float64(cumulative) >= rank {
				lower := prevBound
				upper := percentileBucketValues[b]
				if upper <= lower {
					out[i] = float64(upper)
				} else {
					frac := (rank - float64(cumulative-c)) / float64(c)
					out[i] = float64(lower) + frac*float64(upper-lower)
				}
				found = true
				break
			}
			prevBound = percentileBucketValues[b]
		}
		if !found {
			out[i] = float64(percentileBucketValues[percentileBucketsLength-1])
		}
	}
}
