package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/masahif/wordcrawler/internal/parser"
)

var (
	// ErrHTTPStatus is returned for responses with status code >= 400
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrNotHTML is returned when the response is not an HTML document
	ErrNotHTML = errors.New("response is not HTML")
)

// HTMLFetcher fetches pages over HTTP and parses them as HTML
type HTMLFetcher struct {
	httpClient   *HTTPClient
	ignoredWords []*regexp.Regexp
}

// NewHTMLFetcher creates a fetcher. Words fully matching any of
// ignoredWords are left out of every page's counts.
func NewHTMLFetcher(httpClient *HTTPClient, ignoredWords []*regexp.Regexp) *HTMLFetcher {
	return &HTMLFetcher{
		httpClient:   httpClient,
		ignoredWords: ignoredWords,
	}
}

// Fetch downloads url and extracts its words and links
func (f *HTMLFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	resp, err := f.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	if !isHTML(resp.ContentType) {
		return nil, fmt.Errorf("%w: %q", ErrNotHTML, resp.ContentType)
	}

	htmlParser, err := parser.NewHTMLParser(resp.FinalURL, f.ignoredWords)
	if err != nil {
		return nil, err
	}

	parsed, err := htmlParser.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetched page",
		"url", url,
		"final_url", resp.FinalURL,
		"status", resp.StatusCode,
		"title", parsed.Title,
		"words", len(parsed.WordCounts),
		"links", len(parsed.Links),
		"ttfb", resp.Metrics.TTFB,
		"download_time", resp.Metrics.DownloadTime,
	)

	return &Result{
		WordCounts: parsed.WordCounts,
		Links:      parsed.Links,
	}, nil
}

// isHTML reports whether the content type is an HTML document.
// A missing content type is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
