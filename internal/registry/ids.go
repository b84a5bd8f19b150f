package registry

import (
	"math"
	"sync/atomic"
)

// IDs hands out component identities.
//
// The sequence starts at math.MinInt64 and increases by one per call, so
// the whole int64 range is available before exhaustion. Exhaustion is an
// assertion failure: it cannot happen for any real page, and continuing
// would alias two components.
//
// Thread-safety: IDs is safe for concurrent use.
type IDs struct {
	next atomic.Int64
	used atomic.Bool
}

// NewIDs creates a sequence starting at math.MinInt64.
func NewIDs() *IDs {
	ids := &IDs{}
	ids.next.Store(math.MinInt64)
	return ids
}

// NewIDsAt creates a sequence whose first identity is start.
// Used by tests that exercise exhaustion.
func NewIDsAt(start int64) *IDs {
	ids := &IDs{}
	ids.next.Store(start)
	return ids
}

// Next returns the next identity.
// Panics when the sequence is exhausted.
func (ids *IDs) Next() int64 {
	for {
		cur := ids.next.Load()
		if cur == math.MaxInt64 {
			if ids.used.Swap(true) {
				panic("samwire: component identity space exhausted")
			}
			return cur
		}
		if ids.next.CompareAndSwap(cur, cur+1) {
			return cur
		}
	}
}
