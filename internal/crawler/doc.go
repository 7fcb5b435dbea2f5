// Package crawler fetches news pages and turns them into articles.
//
// The package is split along the steps of one crawl:
//
//   - Fetcher: GET requests with the crawler's User-Agent, site cookies and a body size limit
//   - Spider and LinkParser: article link discovery on the seed page
//   - Extractor: title and paragraph extraction with CSS selectors
//   - Limiter: the pause before each article request (JitterLimiter, IntervalLimiter)
//   - RobotsChecker: optional robots.txt enforcement, cached per host
//
// None of these types touch storage; the pipeline package wires them to
// the database.
//
// # Usage
//
//	client, _ := crawler.NewHTTPClient(30 * time.Second)
//	fetcher := crawler.NewFetcher(client, crawler.WithUserAgent("newscrawl/1.0"))
//	links, err := crawler.NewSpider(fetcher).Discover(ctx, seedURL, pattern, nil)
package crawler
