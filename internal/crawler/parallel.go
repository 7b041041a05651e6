package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/masahif/wordcrawler/internal/page"
)

// ParallelCrawler explores every link in its own goroutine. Each page waits
// for the subtrees of all its links before it completes, and at most
// Parallelism fetches run at the same time.
type ParallelCrawler struct {
	fetcher page.Fetcher
	params  Params
	opts    options
}

// NewParallelCrawler creates a parallel crawler
func NewParallelCrawler(fetcher page.Fetcher, params Params, opts ...Option) *ParallelCrawler {
	if params.Parallelism < 1 {
		params.Parallelism = 1
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ParallelCrawler{fetcher: fetcher, params: params, opts: o}
}

// parallelRun is one invocation of Crawl
type parallelRun struct {
	*crawlState
	slots *semaphore.Weighted
}

// Crawl explores startingURLs and returns the aggregated result
func (c *ParallelCrawler) Crawl(ctx context.Context, startingURLs []string) Result {
	started := time.Now()
	run := &parallelRun{
		crawlState: newCrawlState(c.params, c.opts.now),
		slots:      semaphore.NewWeighted(int64(c.params.Parallelism)),
	}

	slog.Info("Starting crawl",
		"implementation", "parallel",
		"seed_urls", len(startingURLs),
		"max_depth", c.params.MaxDepth,
		"parallelism", c.params.Parallelism,
		"deadline", run.deadline,
	)

	var g errgroup.Group
	for _, url := range startingURLs {
		g.Go(func() error {
			c.explore(ctx, run, url, c.params.MaxDepth)
			return nil
		})
	}
	_ = g.Wait()

	result := run.result(c.params.PopularWordCount)
	slog.Info("Crawl completed",
		"urls_visited", result.URLsVisited,
		"distinct_words", run.counts.Len(),
		"duration", time.Since(started),
	)
	return result
}

func (c *ParallelCrawler) explore(ctx context.Context, run *parallelRun, url string, depth int) {
	if !run.admit(url, depth) {
		return
	}
	if !run.visited.Claim(url) {
		return
	}

	if ctx.Err() != nil {
		return
	}

	// The slot is held only for the fetch, never while waiting on children.
	if err := run.slots.Acquire(ctx, 1); err != nil {
		return
	}
	result, err := c.fetcher.Fetch(ctx, url)
	run.slots.Release(1)
	if err != nil || result == nil {
		slog.Debug("Failed to fetch page", "url", url, "depth", depth, "error", err)
		return
	}

	run.counts.Merge(result.WordCounts)

	// Children at depth 0 would return immediately.
	if depth == 1 {
		return
	}

	var g errgroup.Group
	for _, link := range result.Links {
		g.Go(func() error {
			c.explore(ctx, run, link, depth-1)
			return nil
		})
	}
	_ = g.Wait()
}
