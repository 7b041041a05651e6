package config

import "errors"

var (
	// ErrInvalidTimeout is returned when the crawl timeout is negative
	ErrInvalidTimeout = errors.New("timeout cannot be negative")
	// ErrInvalidRequestTimeout is returned when request timeout is not greater than 0
	ErrInvalidRequestTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidMaxDepth is returned when max depth is negative
	ErrInvalidMaxDepth = errors.New("max_depth cannot be negative")
	// ErrInvalidPopularWordCount is returned when popular word count is negative
	ErrInvalidPopularWordCount = errors.New("popular_word_count cannot be negative")
	// ErrInvalidRequestRate is returned when request rate is negative
	ErrInvalidRequestRate = errors.New("request_rate cannot be negative")
	// ErrUnknownImplementation is returned for an unsupported implementation_override
	ErrUnknownImplementation = errors.New("unknown implementation_override")
	// ErrInvalidPattern is returned when an ignored URL or word pattern does not compile
	ErrInvalidPattern = errors.New("invalid pattern")
)
