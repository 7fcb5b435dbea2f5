// Package main provides the entry point for the newscrawl CLI.
//
// newscrawl crawls a news site's listing page, extracts every linked
// article and stores titles and paragraphs in SQLite for a named-entity
// recognition step to read.
//
// Usage:
//
//	newscrawl initdb
//	newscrawl crawl [seed-url]
//	newscrawl articles
//	newscrawl entities <article-id>
//
// See --help for all available options.
package main

// main is the entry point for newscrawl.
func main() {
	Execute()
}
