package crawler

import (
	"context"
	"fmt"

	"github.com/masahif/wordcrawler/internal/profiler"
)

// CrawlOperation is the profiled operation recorded by TimedCrawler
var CrawlOperation = profiler.Operation{Type: "crawler.Crawler", Method: "Crawl"}

// TimedCrawler records the wall-clock time of every Crawl call
type TimedCrawler struct {
	next     Crawler
	profiler *profiler.Profiler
}

// NewTimedCrawler wraps next. The profiler must declare CrawlOperation.
func NewTimedCrawler(next Crawler, p *profiler.Profiler) (*TimedCrawler, error) {
	if !p.Profiled(CrawlOperation) {
		return nil, fmt.Errorf("%w: %s", profiler.ErrNotProfiled, CrawlOperation)
	}
	return &TimedCrawler{next: next, profiler: p}, nil
}

// Crawl delegates to the wrapped crawler and records its duration
func (t *TimedCrawler) Crawl(ctx context.Context, startingURLs []string) Result {
	defer t.profiler.Start(CrawlOperation)()
	return t.next.Crawl(ctx, startingURLs)
}
