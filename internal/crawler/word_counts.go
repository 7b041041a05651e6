package crawler

import (
	"hash/maphash"
	"sync"
)

const wordCountShards = 32

type wordCountShard struct {
	mu     sync.Mutex
	counts map[string]int
}

// WordCounts is a word frequency table safe for concurrent merges.
// Words are spread over independently locked shards.
type WordCounts struct {
	seed   maphash.Seed
	shards [wordCountShards]wordCountShard
}

// NewWordCounts creates an empty table
func NewWordCounts() *WordCounts {
	w := &WordCounts{seed: maphash.MakeSeed()}
	for i := range w.shards {
		w.shards[i].counts = make(map[string]int)
	}
	return w
}

func (w *WordCounts) shard(word string) *wordCountShard {
	return &w.shards[maphash.String(w.seed, word)%wordCountShards]
}

// Add increments the count of word by n
func (w *WordCounts) Add(word string, n int) {
	s := w.shard(word)
	s.mu.Lock()
	s.counts[word] += n
	s.mu.Unlock()
}

// Merge adds every entry of counts to the table
func (w *WordCounts) Merge(counts map[string]int) {
	for word, n := range counts {
		w.Add(word, n)
	}
}

// Snapshot returns a copy of the current counts
func (w *WordCounts) Snapshot() map[string]int {
	out := make(map[string]int)
	for i := range w.shards {
		s := &w.shards[i]
		s.mu.Lock()
		for word, n := range s.counts {
			out[word] = n
		}
		s.mu.Unlock()
	}
	return out
}

// Len returns the number of distinct words
func (w *WordCounts) Len() int {
	total := 0
	for i := range w.shards {
		s := &w.shards[i]
		s.mu.Lock()
		total += len(s.counts)
		s.mu.Unlock()
	}
	return total
}
