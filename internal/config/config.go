// Package config provides configuration management for the crawler.
// It defines configuration structures, default values and validation of
// crawling parameters, including compilation of ignored URL and word patterns.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"time"
)

// Implementation names accepted by implementation_override
const (
	ImplementationParallel   = "parallel"
	ImplementationSequential = "sequential"
)

// CrawlConfig holds crawler configuration
type CrawlConfig struct {
	// Crawl parameters
	StartPages             []string      `mapstructure:"start_pages" yaml:"start_pages"`                         // Seed URLs for crawling
	IgnoredURLs            []string      `mapstructure:"ignored_urls" yaml:"ignored_urls"`                       // Regex patterns for URLs that are never visited
	IgnoredWords           []string      `mapstructure:"ignored_words" yaml:"ignored_words"`                     // Regex patterns for words that are never counted
	Parallelism            int           `mapstructure:"parallelism" yaml:"parallelism"`                         // Desired parallelism (<1 means all cores)
	ImplementationOverride string        `mapstructure:"implementation_override" yaml:"implementation_override"` // Force "parallel" or "sequential"
	MaxDepth               int           `mapstructure:"max_depth" yaml:"max_depth"`                             // Maximum number of link hops
	Timeout                time.Duration `mapstructure:"timeout" yaml:"timeout"`                                 // Wall-clock budget for the whole crawl
	PopularWordCount       int           `mapstructure:"popular_word_count" yaml:"popular_word_count"`           // Number of words in the result

	// Output
	ProfileOutputPath string `mapstructure:"profile_output_path" yaml:"profile_output_path"` // Profile report file (empty=stdout)
	ResultPath        string `mapstructure:"result_path" yaml:"result_path"`                 // Result JSON file (empty=stdout)

	// Page fetching
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // HTTP request timeout
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	RequestRate    float64       `mapstructure:"request_rate" yaml:"request_rate"`       // Max fetches per second across the crawl (0=unlimited)

	// Run history
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // SQLite file for run history (empty=disabled)

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Optional rotating log file
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		Parallelism:      0, // all cores
		MaxDepth:         10,
		Timeout:          10 * time.Second,
		PopularWordCount: 10,
		RequestTimeout:   30 * time.Second,
		UserAgent:        "WordCrawler/1.0",
		LogLevel:         "info",
	}
}

// Validate checks if the configuration is valid. Patterns are compiled here
// so that a crawl never starts with a malformed pattern set.
func (c *CrawlConfig) Validate() error {
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.PopularWordCount < 0 {
		return ErrInvalidPopularWordCount
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	if c.RequestRate < 0 {
		return ErrInvalidRequestRate
	}

	switch c.ImplementationOverride {
	case "", ImplementationParallel, ImplementationSequential:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownImplementation, c.ImplementationOverride)
	}

	if _, err := CompilePatterns(c.IgnoredURLs); err != nil {
		return fmt.Errorf("ignored_urls: %w", err)
	}
	if _, err := CompilePatterns(c.IgnoredWords); err != nil {
		return fmt.Errorf("ignored_words: %w", err)
	}

	return nil
}

// EffectiveParallelism resolves the configured parallelism against the
// available hardware: values below 1 mean all cores, and the result never
// exceeds runtime.NumCPU().
func (c *CrawlConfig) EffectiveParallelism() int {
	cpus := runtime.NumCPU()
	if c.Parallelism < 1 || c.Parallelism > cpus {
		return cpus
	}
	return c.Parallelism
}

// Implementation returns the crawler implementation to use
func (c *CrawlConfig) Implementation() string {
	if c.ImplementationOverride != "" {
		return c.ImplementationOverride
	}
	if c.EffectiveParallelism() == 1 {
		return ImplementationSequential
	}
	return ImplementationParallel
}

// CompilePatterns compiles regex patterns for full-string matching.
// Each pattern is anchored, so "http://x/.*" never matches "http://y/http://x/a".
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// MatchesAny reports whether s fully matches any of the compiled patterns
func MatchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
