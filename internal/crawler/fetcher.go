package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/html/charset"
)

// ErrUnexpectedStatus is returned by Fetch for HTTP status codes >= 400.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// defaultMaxBodySize applies when no size limit is configured.
const defaultMaxBodySize = 5 * 1024 * 1024

// Page is a fetched HTTP response.
type Page struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, cut at the fetcher's size limit.
	Body []byte
}

// Reader returns the body decoded to UTF-8 according to the declared
// or sniffed charset.
func (p *Page) Reader() (io.Reader, error) {
	r, err := charset.NewReader(bytes.NewReader(p.Body), p.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", p.URL, err)
	}
	return r, nil
}

// Fetcher performs GET requests with the crawler's headers and limits.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetcherLogger sets the logger for request tracing.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher around client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "newscrawl/1.0",
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UserAgent returns the User-Agent the fetcher sends.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch retrieves pageURL and fails with ErrUnexpectedStatus when the
// server answers with a client or server error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, header http.Header) (*Page, error) {
	page, err := f.Get(ctx, pageURL, header)
	if err != nil {
		return nil, err
	}
	if page.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, page.StatusCode, pageURL)
	}
	return page, nil
}

// Get retrieves pageURL regardless of status code. Extra headers in
// header are added after the defaults and may override them.
func (f *Fetcher) Get(ctx context.Context, pageURL string, header http.Header) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.8")
	for key, values := range header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	f.logger.Debug("fetching page", "url", pageURL, "cookie", req.Header.Get("Cookie"))

	resp, err := f.client.Do(req) //nolint:gosec // URL comes from the configured seed or its links
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}

	f.logger.Debug("fetched page", "url", pageURL, "status", resp.StatusCode, "bytes", len(body))

	return &Page{
		URL:         pageURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// SiteHeader builds request headers from a site's cookie and custom headers.
func SiteHeader(cookie string, headers map[string]string) http.Header {
	h := make(http.Header, len(headers)+1)
	for k, v := range headers {
		h.Set(k, v)
	}
	if cookie != "" {
		h.Set("Cookie", cookie)
	}
	return h
}
