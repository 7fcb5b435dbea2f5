package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies why a link was skipped.
type ErrorKind string

const (
	// KindTransport covers network failures and HTTP error statuses.
	KindTransport ErrorKind = "transport"

	// KindRobots means robots.txt disallowed the link.
	KindRobots ErrorKind = "robots"

	// KindParse means an expected element (title heading, article
	// container) was missing from the page.
	KindParse ErrorKind = "parse"

	// KindStorage covers database failures, including duplicate titles.
	KindStorage ErrorKind = "storage"

	// KindCanceled means the crawl context ended while the link was in flight.
	KindCanceled ErrorKind = "canceled"
)

// CrawlError is a classified failure tied to one link.
type CrawlError struct {
	// Kind is the failure class.
	Kind ErrorKind `json:"kind"`

	// Link is the raw href that failed. Empty for the seed page.
	Link string `json:"link,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// NewCrawlError wraps err with a kind and link.
func NewCrawlError(kind ErrorKind, link string, err error) *CrawlError {
	return &CrawlError{Kind: kind, Link: link, Err: err}
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Link == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.Link, e.Err)
}

// Unwrap returns the underlying error.
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first CrawlError in err's chain,
// or the empty kind if there is none.
func KindOf(err error) ErrorKind {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// LinkResult is the outcome of processing one article link.
type LinkResult struct {
	// Link is the raw href as found on the seed page.
	Link string `json:"link"`

	// URL is the absolute URL that was fetched.
	URL string `json:"url"`

	// ArticleID is the stored article's rowid. Zero when the link failed.
	ArticleID int64 `json:"article_id,omitempty"`

	// Title is the extracted title. May be set even when storage failed.
	Title string `json:"title,omitempty"`

	// Sentences is the number of sentence rows written.
	Sentences int `json:"sentences"`

	// Error is set when the link was skipped.
	Error *CrawlError `json:"error,omitempty"`

	// ErrorMessage is Error's message, kept for JSON output.
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK reports whether the link was stored.
func (r LinkResult) OK() bool {
	return r.Error == nil
}

// CrawlReport summarizes one crawl run.
type CrawlReport struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"run_id"`

	// SeedURL is the listing page the run started from.
	SeedURL string `json:"seed_url"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Success is false only when the seed page could not be fetched or parsed.
	Success bool `json:"success"`

	// SeedError describes the seed failure when Success is false.
	SeedError string `json:"seed_error,omitempty"`

	// LinksFound is the number of distinct article links on the seed page.
	LinksFound int `json:"links_found"`

	// Canceled is true when the run stopped before all links were attempted.
	Canceled bool `json:"canceled,omitempty"`

	// Results holds one entry per attempted link, in page order.
	Results []LinkResult `json:"results"`
}

// NewCrawlReport creates an empty report for a run.
func NewCrawlReport(runID, seedURL string) *CrawlReport {
	return &CrawlReport{
		RunID:     runID,
		SeedURL:   seedURL,
		StartedAt: time.Now(),
		Results:   make([]LinkResult, 0),
	}
}

// AddResult appends a link outcome.
func (r *CrawlReport) AddResult(result LinkResult) {
	if result.Error != nil {
		result.ErrorMessage = result.Error.Error()
	}
	r.Results = append(r.Results, result)
}

// Succeeded returns the number of stored links.
func (r *CrawlReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Skipped returns the number of failed links.
func (r *CrawlReport) Skipped() int {
	return len(r.Results) - r.Succeeded()
}

// SentencesStored returns the total number of sentence rows written.
func (r *CrawlReport) SentencesStored() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n += res.Sentences
		}
	}
	return n
}

// SkipReasons counts failed links by kind.
func (r *CrawlReport) SkipReasons() map[ErrorKind]int {
	reasons := make(map[ErrorKind]int)
	for _, res := range r.Results {
		if res.Error != nil {
			reasons[res.Error.Kind]++
		}
	}
	return reasons
}

// Duration returns the wall time of the run.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
