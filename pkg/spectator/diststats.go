package spectator

// distStats caches the four derived Ids (total, totalOfSquares, max,
// count) reported by DistributionSummary and Timer, since WithStat
// allocates a new tag set and the base Id never changes across the
// meter's lifetime.
type distStats struct {
	total   Id
	totalSq Id
	max     Id
	count   Id
}

func newDistStats(base Id, totalStatRef StrRef) *distStats {
	return &distStats{
		total:   base.WithTag("statistic", DeRef(totalStatRef)),
		totalSq: base.WithStat("totalOfSquares"),
		max:     base.WithStat("max"),
		count:   base.WithStat("count"),
	}
}
