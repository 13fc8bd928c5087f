package spectator

// wellKnown holds the StrRef handles for tag/statistic names that are
// referenced on every measurement path, so they are interned exactly once
// at package init instead of being re-interned per call.
type wellKnown struct {
	name           StrRef
	count          StrRef
	gauge          StrRef
	totalTime      StrRef
	totalAmount    StrRef
	totalOfSquares StrRef
	percentile     StrRef
	max            StrRef
	statistic      StrRef
}

var refs = wellKnown{
	name:           Intern("name"),
	count:          Intern("count"),
	gauge:          Intern("gauge"),
	totalTime:      Intern("totalTime"),
	totalAmount:    Intern("totalAmount"),
	totalOfSquares: Intern("totalOfSquares"),
	percentile:     Intern("percentile"),
	max:            Intern("max"),
	statistic:      Intern("statistic"),
}
