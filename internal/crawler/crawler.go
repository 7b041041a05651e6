// Package crawler provides the core web crawling functionality.
// It explores a link graph from a set of seed URLs, bounded by depth and by
// a single wall-clock deadline, and aggregates the words found on every
// fetched page into a ranked frequency table.
package crawler

import (
	"fmt"
	"regexp"
	"time"

	"github.com/masahif/wordcrawler/internal/config"
	"github.com/masahif/wordcrawler/internal/page"
)

// New creates the crawler implementation selected by cfg
func New(cfg *config.CrawlConfig, fetcher page.Fetcher, opts ...Option) (Crawler, error) {
	ignored, err := config.CompilePatterns(cfg.IgnoredURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignored_urls: %w", err)
	}

	params := Params{
		Timeout:          cfg.Timeout,
		MaxDepth:         cfg.MaxDepth,
		PopularWordCount: cfg.PopularWordCount,
		Parallelism:      cfg.EffectiveParallelism(),
		IgnoredURLs:      ignored,
	}

	switch impl := cfg.Implementation(); impl {
	case config.ImplementationSequential:
		return NewSequentialCrawler(fetcher, params, opts...), nil
	case config.ImplementationParallel:
		return NewParallelCrawler(fetcher, params, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownImplementation, impl)
	}
}

// crawlState is the state shared by every branch of one crawl
type crawlState struct {
	deadline time.Time
	now      func() time.Time
	ignored  []*regexp.Regexp
	visited  *VisitedSet
	counts   *WordCounts
}

func newCrawlState(params Params, now func() time.Time) *crawlState {
	return &crawlState{
		deadline: now().Add(params.Timeout),
		now:      now,
		ignored:  params.IgnoredURLs,
		visited:  NewVisitedSet(),
		counts:   NewWordCounts(),
	}
}

// admit reports whether a branch for url with the given remaining depth may
// proceed to claim the URL.
func (s *crawlState) admit(url string, depth int) bool {
	if depth <= 0 {
		return false
	}
	if !s.now().Before(s.deadline) {
		return false
	}
	return !config.MatchesAny(s.ignored, url)
}

// result builds the crawl result from the final shared state
func (s *crawlState) result(popularWordCount int) Result {
	return Result{
		WordCounts:  TopWords(s.counts.Snapshot(), popularWordCount),
		URLsVisited: s.visited.Len(),
	}
}
