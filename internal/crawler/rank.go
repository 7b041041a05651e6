package crawler

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// compareWordCounts orders by count descending, then word length descending,
// then alphabetically.
func compareWordCounts(a, b WordCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(utf8.RuneCountInString(b.Word), utf8.RuneCountInString(a.Word)); c != 0 {
		return c
	}
	return strings.Compare(a.Word, b.Word)
}

// SortWordCounts sorts wcs in rank order
func SortWordCounts(wcs []WordCount) {
	slices.SortFunc(wcs, compareWordCounts)
}

// TopWords returns the k highest ranked entries of counts
func TopWords(counts map[string]int, k int) []WordCount {
	if k <= 0 || len(counts) == 0 {
		return []WordCount{}
	}

	all := make([]WordCount, 0, len(counts))
	for word, n := range counts {
		all = append(all, WordCount{Word: word, Count: n})
	}
	SortWordCounts(all)

	if len(all) > k {
		all = all[:k]
	}
	return all
}
