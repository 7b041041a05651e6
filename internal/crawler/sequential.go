package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/masahif/wordcrawler/internal/page"
)

// SequentialCrawler explores the link graph depth-first on the calling
// goroutine. It follows the same rules as ParallelCrawler.
type SequentialCrawler struct {
	fetcher page.Fetcher
	params  Params
	opts    options
}

// NewSequentialCrawler creates a sequential crawler
func NewSequentialCrawler(fetcher page.Fetcher, params Params, opts ...Option) *SequentialCrawler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SequentialCrawler{fetcher: fetcher, params: params, opts: o}
}

// Crawl explores startingURLs one after another
func (c *SequentialCrawler) Crawl(ctx context.Context, startingURLs []string) Result {
	started := time.Now()
	state := newCrawlState(c.params, c.opts.now)

	slog.Info("Starting crawl",
		"implementation", "sequential",
		"seed_urls", len(startingURLs),
		"max_depth", c.params.MaxDepth,
		"deadline", state.deadline,
	)

	for _, url := range startingURLs {
		c.explore(ctx, state, url, c.params.MaxDepth)
	}

	result := state.result(c.params.PopularWordCount)
	slog.Info("Crawl completed",
		"urls_visited", result.URLsVisited,
		"distinct_words", state.counts.Len(),
		"duration", time.Since(started),
	)
	return result
}

func (c *SequentialCrawler) explore(ctx context.Context, state *crawlState, url string, depth int) {
	if !state.admit(url, depth) {
		return
	}
	if !state.visited.Claim(url) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	result, err := c.fetcher.Fetch(ctx, url)
	if err != nil || result == nil {
		slog.Debug("Failed to fetch page", "url", url, "depth", depth, "error", err)
		return
	}

	state.counts.Merge(result.WordCounts)
	for _, link := range result.Links {
		c.explore(ctx, state, link, depth-1)
	}
}
