package spectator

import "sort"

type tag struct {
	key, value StrRef
}

// Tags is a small sorted-by-key, deduplicated-by-key array of string
// key/value pairs. It is intentionally not a map: meter identities carry
// few tags, and a sorted slice is both cheaper to hash and cheaper to
// compare than a map for the sizes seen in practice.
type Tags struct {
	entries []tag
}

// NewTags builds a Tags from a plain string map, interning every key and
// value.
func NewTags(m map[string]string) Tags {
	var t Tags
	for k, v := range m {
		t.Add(k, v)
	}
	return t
}

func (t Tags) search(key StrRef) (int, bool) {
	ks := DeRef(key)
	i := sort.Search(len(t.entries), func(i int) bool { return DeRef(t.entries[i].key) >= ks })
	if i < len(t.entries) && t.entries[i].key == key {
		return i, true
	}
	return i, false
}

// Add inserts key=value, overwriting any existing value for key.
func (t *Tags) Add(key, value string) {
	t.AddRef(Intern(key), Intern(value))
}

// AddRef is Add for already-interned key/value refs.
func (t *Tags) AddRef(key, value StrRef) {
	i, found := t.search(key)
	if found {
		t.entries[i].value = value
		return
	}
	t.entries = append(t.entries, tag{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = tag{key: key, value: value}
}

// AddAll merges other into t, with other's values winning on key conflicts.
func (t *Tags) AddAll(other Tags) {
	for _, e := range other.entries {
		t.AddRef(e.key, e.value)
	}
}

// Has reports whether key is present.
func (t Tags) Has(key string) bool {
	_, found := t.search(Intern(key))
	return found
}

// At returns the value for key, or "" if absent.
func (t Tags) At(key string) string {
	i, found := t.search(Intern(key))
	if !found {
		return ""
	}
	return DeRef(t.entries[i].value)
}

// Len returns the number of tags.
func (t Tags) Len() int { return len(t.entries) }

// ForEach calls f for every key/value pair in sorted key order.
func (t Tags) ForEach(f func(key, value string)) {
	for _, e := range t.entries {
		f(DeRef(e.key), DeRef(e.value))
	}
}

// Hash is a commutative (order-independent) hash of the tag set, used as
// part of Id's identity hash.
func (t Tags) Hash() uint64 {
	var h uint64
	for _, e := range t.entries {
		h ^= uint64(e.key)*31 + uint64(e.value)
	}
	return h
}

// Equal reports whether t and o contain the same key/value pairs.
func (t Tags) Equal(o Tags) bool {
	if len(t.entries) != len(o.entries) {
		return false
	}
	for i, e := range t.entries {
		if o.entries[i] != e {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of t.
func (t Tags) Clone() Tags {
	out := Tags{entries: make([]tag, len(t.entries))}
	copy(out.entries, t.entries)
	return out
}
