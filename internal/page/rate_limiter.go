package page

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher caps the number of fetches per second across the whole
// crawl. It is a single shared limiter, not a per-host one.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher wraps next so that at most perSecond fetches start
// each second. A non-positive rate returns next unchanged.
func NewRateLimitedFetcher(next Fetcher, perSecond float64) Fetcher {
	if perSecond <= 0 {
		return next
	}
	return &RateLimitedFetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Fetch waits for permission and then delegates to the wrapped fetcher
func (r *RateLimitedFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Fetch(ctx, url)
}
