// Package page fetches web pages and turns them into word counts and links.
// It also holds the decorators that can be stacked around a Fetcher:
// request throttling and profiling.
package page

import "context"

// Fetcher retrieves a page and reports the words on it and its outbound links
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Result is what a crawl consumes from a fetched page
type Result struct {
	WordCounts map[string]int
	Links      []string
}

// FetcherFunc adapts an ordinary function to the Fetcher interface
type FetcherFunc func(ctx context.Context, url string) (*Result, error)

// Fetch calls f(ctx, url)
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Result, error) {
	return f(ctx, url)
}
