package page

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/masahif/wordcrawler/internal/profiler"
)

func staticFetcher(calls *atomic.Int32, err error) Fetcher {
	return FetcherFunc(func(ctx context.Context, url string) (*Result, error) {
		calls.Add(1)
		if err != nil {
			return nil, err
		}
		return &Result{WordCounts: map[string]int{"word": 1}, Links: []string{url + "/child"}}, nil
	})
}

func TestRateLimitedFetcher(t *testing.T) {
	var calls atomic.Int32
	fetcher := NewRateLimitedFetcher(staticFetcher(&calls, nil), 10)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(ctx, "http://example.com"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Rate limiting not working, elapsed time: %v", elapsed)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestRateLimitedFetcherDisabled(t *testing.T) {
	var calls atomic.Int32
	inner := staticFetcher(&calls, nil)

	if _, limited := NewRateLimitedFetcher(inner, 0).(*RateLimitedFetcher); limited {
		t.Error("Expected zero rate to return the wrapped fetcher unchanged")
	}
}

func TestRateLimitedFetcherContextCancellation(t *testing.T) {
	var calls atomic.Int32
	fetcher := NewRateLimitedFetcher(staticFetcher(&calls, nil), 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := fetcher.Fetch(ctx, "http://example.com"); err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	cancel()
	if _, err := fetcher.Fetch(ctx, "http://example.com"); err == nil {
		t.Error("Expected error from cancelled context")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 call to reach the wrapped fetcher, got %d", calls.Load())
	}
}

func TestTimedFetcher(t *testing.T) {
	var tick atomic.Int64
	clock := func() time.Time {
		return time.Unix(0, 0).Add(time.Duration(tick.Add(1)) * 10 * time.Millisecond)
	}
	p := profiler.New(clock, FetchOperation)

	var calls atomic.Int32
	timed, err := NewTimedFetcher(staticFetcher(&calls, nil), p)
	if err != nil {
		t.Fatalf("NewTimedFetcher() error = %v", err)
	}

	result, err := timed.Fetch(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if result.WordCounts["word"] != 1 || len(result.Links) != 1 {
		t.Errorf("TimedFetcher changed the result: %+v", result)
	}

	if got := p.Total(FetchOperation); got != 10*time.Millisecond {
		t.Errorf("Total() = %v, want 10ms", got)
	}
}

func TestTimedFetcherRecordsFailures(t *testing.T) {
	p := profiler.New(time.Now, FetchOperation)
	fetchErr := errors.New("boom")

	var calls atomic.Int32
	timed, err := NewTimedFetcher(staticFetcher(&calls, fetchErr), p)
	if err != nil {
		t.Fatalf("NewTimedFetcher() error = %v", err)
	}

	if _, err := timed.Fetch(context.Background(), "http://example.com"); !errors.Is(err, fetchErr) {
		t.Errorf("Expected wrapped error, got %v", err)
	}

	var sb strings.Builder
	if err := p.WriteData(&sb); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}
	if !strings.Contains(sb.String(), FetchOperation.String()) {
		t.Errorf("Expected report to contain %s, got %q", FetchOperation, sb.String())
	}
}

func TestTimedFetcherRequiresDeclaration(t *testing.T) {
	p := profiler.New(time.Now)
	var calls atomic.Int32

	if _, err := NewTimedFetcher(staticFetcher(&calls, nil), p); !errors.Is(err, profiler.ErrNotProfiled) {
		t.Errorf("Expected ErrNotProfiled, got %v", err)
	}
}
