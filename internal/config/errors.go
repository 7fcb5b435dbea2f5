package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoDatabasePath is returned when no storage path is configured.
	ErrNoDatabasePath = errors.New("no database path specified: use --db")

	// ErrNoSeedURL is returned when the seed URL is empty.
	ErrNoSeedURL = errors.New("no seed URL specified")

	// ErrInvalidSeedURL is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrInvalidArticlePattern is returned when the article pattern is empty
	// or does not compile.
	ErrInvalidArticlePattern = errors.New("invalid article pattern: must be a valid regular expression")

	// ErrEmptySelector is returned when a title, article or paragraph selector is empty.
	ErrEmptySelector = errors.New("invalid selector: title, article and paragraph selectors must be set")

	// ErrUnknownLimiter is returned for a limiter kind other than jitter or interval.
	ErrUnknownLimiter = errors.New("unknown limiter: must be jitter or interval")

	// ErrInvalidDelay is returned when the delay bounds are negative or inverted.
	ErrInvalidDelay = errors.New("invalid delay: min must be non-negative and not greater than max")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
