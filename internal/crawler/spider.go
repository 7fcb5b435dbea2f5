package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
)

// ErrInvalidSeedPage is returned by Discover when the seed page was
// fetched but could not be decoded or parsed.
var ErrInvalidSeedPage = errors.New("invalid seed page")

// Spider discovers article links on a listing page.
type Spider struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithSpiderLogger sets the spider's logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches through fetcher.
func NewSpider(fetcher *Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover fetches seedURL and returns its distinct article links in
// page order. Fetch failures are returned as is; decode and parse
// failures wrap ErrInvalidSeedPage.
func (s *Spider) Discover(ctx context.Context, seedURL string, pattern *regexp.Regexp, header http.Header) ([]Link, error) {
	page, err := s.fetcher.Fetch(ctx, seedURL, header)
	if err != nil {
		return nil, err
	}

	body, err := page.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeedPage, err)
	}

	// Relative hrefs resolve against where the seed actually landed.
	parser, err := NewLinkParser(page.FinalURL, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad final URL %s: %w", ErrInvalidSeedPage, page.FinalURL, err)
	}

	links, err := parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSeedPage, seedURL, err)
	}

	s.logger.Debug("discovered article links", "seed", seedURL, "links", len(links))
	return links, nil
}

// LinkSet is the set of raw link strings seen during one crawl run.
type LinkSet struct {
	seen map[string]struct{}
}

// NewLinkSet creates an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

// Add records raw and reports whether it was new.
func (s *LinkSet) Add(raw string) bool {
	if _, ok := s.seen[raw]; ok {
		return false
	}
	s.seen[raw] = struct{}{}
	return true
}

// Contains reports whether raw has been recorded.
func (s *LinkSet) Contains(raw string) bool {
	_, ok := s.seen[raw]
	return ok
}

// Len returns the number of recorded links.
func (s *LinkSet) Len() int {
	return len(s.seen)
}
