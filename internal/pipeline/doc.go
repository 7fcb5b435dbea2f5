// Package pipeline runs a crawl: seed discovery followed by a per-link
// sequence of steps (rate limit, robots.txt, fetch, extract, store).
//
// Every step returns a *model.CrawlError on failure. The Runner records
// the failure in the run's report and moves on to the next link; only a
// failed seed page aborts the run.
package pipeline
