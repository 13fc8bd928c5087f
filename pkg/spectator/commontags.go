package spectator

import "sync"

// commonTagsMutex guards Registry's commonTags field; a named type just to
// keep the Registry struct's field list self-documenting.
type commonTagsMutex struct {
	sync.RWMutex
}
