package crawler

import (
	"sync"
	"sync/atomic"
)

// VisitedSet records the URLs claimed for exploration
type VisitedSet struct {
	urls sync.Map
	size atomic.Int64
}

// NewVisitedSet creates an empty set
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// Claim adds url to the set and reports whether this call added it.
// Concurrent claims of the same URL have exactly one winner.
func (v *VisitedSet) Claim(url string) bool {
	if _, loaded := v.urls.LoadOrStore(url, struct{}{}); loaded {
		return false
	}
	v.size.Add(1)
	return true
}

// Contains reports whether url has been claimed
func (v *VisitedSet) Contains(url string) bool {
	_, ok := v.urls.Load(url)
	return ok
}

// Len returns the number of claimed URLs
func (v *VisitedSet) Len() int {
	return int(v.size.Load())
}
