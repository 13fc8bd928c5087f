package spectator

// Id is a meter's identity: a name plus a set of tags. Id is immutable;
// With* methods return a new Id rather than mutating the receiver, so that
// an Id can be safely shared as a map key across goroutines.
type Id struct {
	name StrRef
	tags Tags

	hashed bool
	hash   uint64
}

// NewId builds an Id from a plain name and tag map.
func NewId(name string, tags Tags) Id {
	return Id{name: Intern(name), tags: tags}
}

func newIdRef(name StrRef, tags Tags) Id {
	return Id{name: name, tags: tags}
}

// Name returns the meter name.
func (id Id) Name() string { return DeRef(id.name) }

// Tags returns the identity's tag set.
func (id Id) Tags() Tags { return id.tags }

// WithTag returns a copy of id with key=value added or overwritten.
func (id Id) WithTag(key, value string) Id {
	t := id.tags.Clone()
	t.Add(key, value)
	return newIdRef(id.name, t)
}

// WithTags returns a copy of id with every pair in extra merged in.
func (id Id) WithTags(extra Tags) Id {
	t := id.tags.Clone()
	t.AddAll(extra)
	return newIdRef(id.name, t)
}

// WithStat returns a copy of id tagged statistic=stat.
func (id Id) WithStat(stat string) Id {
	return id.WithTag("statistic", stat)
}

// WithPercentileTag returns a copy of id tagged statistic=percentile and
// percentile=bucketTag, the composite key used by PercentileTimer and
// PercentileDistributionSummary to materialize one counter per bucket.
func (id Id) WithPercentileTag(bucketTag string) Id {
	t := id.tags.Clone()
	t.AddRef(refs.statistic, refs.percentile)
	t.Add("percentile", bucketTag)
	return newIdRef(id.name, t)
}

// WithDefaultStat returns a copy of id tagged with the given statistic
// ref only if id does not already carry a "statistic" tag.
func (id Id) WithDefaultStat(stat StrRef) Id {
	if id.tags.Has("statistic") {
		return id
	}
	t := id.tags.Clone()
	t.AddRef(refs.statistic, stat)
	return newIdRef(id.name, t)
}

// Hash returns an identity hash, memoized on first use. Maps do not key on
// it: Registry and ExpiringCache key meters by the string from Key(),
// since Go maps cannot key on a type with unexported slice internals.
func (id *Id) Hash() uint64 {
	if !id.hashed {
		h := uint64(id.name)*1000003 ^ id.tags.Hash()
		id.hash = h
		id.hashed = true
	}
	return id.hash
}

// Equal reports whether id and o have the same name and tags.
func (id Id) Equal(o Id) bool {
	return id.name == o.name && id.tags.Equal(o.tags)
}

// Key returns a value suitable for use as a Go map key uniquely identifying
// this Id's name+tags.
func (id Id) Key() string {
	var b []byte
	b = append(b, DeRef(id.name)...)
	id.tags.ForEach(func(k, v string) {
		b = append(b, ',')
		b = append(b, k...)
		b = append(b, '=')
		b = append(b, v...)
	})
	return string(b)
}

// String renders the identity as name,k=v,k2=v2 the same way the admin
// server's DELETE /metrics/{type}/{id} path parses it back.
func (id Id) String() string {
	return id.Key()
}
