package spectator

import (
	"sync/atomic"
	"time"
)

// meterBase holds the identity and last-update timestamp shared by every
// meter type. The Registry uses Updated() to expire meters that have
// received no activity within the configured TTL.
type meterBase struct {
	id          Id
	lastUpdated int64 // unix nanos, atomic
}

func newMeterBase(id Id) meterBase {
	return meterBase{id: id, lastUpdated: time.Now().UnixNano()}
}

func (m *meterBase) MeterId() Id { return m.id }

func (m *meterBase) Updated() int64 { return atomic.LoadInt64(&m.lastUpdated) }

func (m *meterBase) touch() { atomic.StoreInt64(&m.lastUpdated, time.Now().UnixNano()) }
