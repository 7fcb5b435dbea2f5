// Package model defines the core data structures used throughout newscrawl.
//
// This package contains the following main types:
//   - Article, Sentence, NamedEntity: rows of the three storage tables
//   - SentenceEntityRow: one row of the article → sentence → ner join
//   - CrawlReport: the outcome of one crawl run, link by link
//   - CrawlError: a classified per-link failure
//
// The types live in their own package because the crawler, database and
// report packages all exchange them.
package model
