package page

import (
	"context"
	"fmt"

	"github.com/masahif/wordcrawler/internal/profiler"
)

// FetchOperation is the profiled operation recorded by TimedFetcher
var FetchOperation = profiler.Operation{Type: "page.Fetcher", Method: "Fetch"}

// TimedFetcher records the wall-clock time of every Fetch call, whether it
// succeeds or not. It does not change results.
type TimedFetcher struct {
	next     Fetcher
	profiler *profiler.Profiler
}

// NewTimedFetcher wraps next. The profiler must declare FetchOperation.
func NewTimedFetcher(next Fetcher, p *profiler.Profiler) (*TimedFetcher, error) {
	if !p.Profiled(FetchOperation) {
		return nil, fmt.Errorf("%w: %s", profiler.ErrNotProfiled, FetchOperation)
	}
	return &TimedFetcher{next: next, profiler: p}, nil
}

// Fetch delegates to the wrapped fetcher and records its duration
func (t *TimedFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	defer t.profiler.Start(FetchOperation)()
	return t.next.Fetch(ctx, url)
}
