package crawler

import (
	"context"
	"regexp"
	"time"
)

// Crawler defines the main crawling interface. Crawl blocks until every
// branch of the crawl has finished and never fails: pages that cannot be
// fetched simply contribute nothing.
type Crawler interface {
	Crawl(ctx context.Context, startingURLs []string) Result
}

// Params are the tunables shared by every Crawler implementation
type Params struct {
	Timeout          time.Duration    // Wall-clock budget, measured from the start of Crawl
	MaxDepth         int              // Link hops allowed from a seed; 0 visits nothing
	PopularWordCount int              // Size of the ranked word list in the result
	Parallelism      int              // Concurrent fetches (parallel crawler only)
	IgnoredURLs      []*regexp.Regexp // URLs fully matching any pattern are never visited
}

// Option configures a crawler
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock sets the clock used to compute and check the crawl deadline
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
