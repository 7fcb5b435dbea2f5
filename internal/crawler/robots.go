package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
)

// ErrDisallowedByRobots is returned when robots.txt forbids a URL.
var ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

// RobotsChecker answers robots.txt queries, fetching each host's file
// once per checker.
type RobotsChecker struct {
	fetcher *Fetcher
	agent   string
	cache   map[string]*robotstxt.RobotsData
}

// NewRobotsChecker creates a checker that fetches through fetcher and
// matches groups against the fetcher's User-Agent.
func NewRobotsChecker(fetcher *Fetcher) *RobotsChecker {
	return &RobotsChecker{
		fetcher: fetcher,
		agent:   fetcher.UserAgent(),
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Check returns ErrDisallowedByRobots if pageURL may not be fetched.
// An unreachable robots.txt allows everything; 4xx allows everything and
// 5xx disallows everything, following robotstxt.FromStatusAndBytes.
func (r *RobotsChecker) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("robots: parse url: %w", err)
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return fmt.Errorf("robots: empty host in url %q", pageURL)
	}

	data, ok := r.cache[host]
	if !ok {
		data = r.fetch(ctx, u.Scheme, host)
		r.cache[host] = data
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !data.TestAgent(path, r.agent) {
		return fmt.Errorf("%w: %s", ErrDisallowedByRobots, pageURL)
	}
	return nil
}

func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"

	page, err := r.fetcher.Get(ctx, robotsURL, nil)
	if err != nil {
		r.fetcher.logger.Debug("robots.txt unavailable, allowing all", "host", host, "error", err)
		return allowAll()
	}

	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
	if err != nil {
		r.fetcher.logger.Debug("robots.txt unparsable, allowing all", "host", host, "error", err)
		return allowAll()
	}
	return data
}

func allowAll() *robotstxt.RobotsData {
	// An empty file parses to a ruleset that allows every path.
	data, _ := robotstxt.FromBytes(nil) //nolint:errcheck // empty input cannot fail
	return data
}
