// Package spectator implements the in-process metrics registry: string
// interning, tag sets, meter identities, the typed meter implementations,
// and the Registry that owns them.
package spectator

import "sync"

// StrRef is an opaque handle to an interned string. Two StrRef values
// compare equal (as plain integers) if and only if they name the same
// string, which lets Tags and Id use cheap integer comparisons instead of
// repeated string comparisons on the hot measurement path.
type StrRef uint32

// StrPool interns strings into a stable table of StrRef handles. It is
// safe for concurrent use. The zero value is not usable; use NewStrPool.
type StrPool struct {
	mu      sync.RWMutex
	byValue map[string]StrRef
	values  []string

	hits   uint64
	misses uint64
}

// NewStrPool returns an empty interning pool.
func NewStrPool() *StrPool {
	return &StrPool{byValue: make(map[string]StrRef)}
}

// Intern returns the StrRef for s, creating one if s has not been seen
// before.
func (p *StrPool) Intern(s string) StrRef {
	p.mu.RLock()
	if ref, ok := p.byValue[s]; ok {
		p.mu.RUnlock()
		p.mu.Lock()
		p.hits++
		p.mu.Unlock()
		return ref
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if ref, ok := p.byValue[s]; ok {
		p.hits++
		return ref
	}
	ref := StrRef(len(p.values))
	p.values = append(p.values, s)
	p.byValue[s] = ref
	p.misses++
	return ref
}

// String returns the interned string for ref. Panics if ref was never
// returned by Intern on this pool, which would indicate a programming
// error (a StrRef leaking across pool instances).
func (p *StrPool) String(ref StrRef) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[ref]
}

// Stats reports the interning table size and lookup hit/miss counters,
// published by the upkeep task as self-metrics.
type StrPoolStats struct {
	TableSize int
	Hits      uint64
	Misses    uint64
}

func (p *StrPool) Stats() StrPoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return StrPoolStats{TableSize: len(p.values), Hits: p.hits, Misses: p.misses}
}

// defaultPool is the process-wide interning pool used by Intern/DeRef,
// mirroring the original implementation's global string_pool singleton.
var defaultPool = NewStrPool()

// Intern interns s in the default pool.
func Intern(s string) StrRef { return defaultPool.Intern(s) }

// DeRef returns the string named by ref, as interned in the default pool.
func DeRef(ref StrRef) string { return defaultPool.String(ref) }

// DefaultPoolStats reports interning stats for the default pool.
func DefaultPoolStats() StrPoolStats { return defaultPool.Stats() }
