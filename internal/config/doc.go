// Package config provides configuration for newscrawl: crawl targets,
// extraction selectors, politeness settings, storage location and report
// preferences, plus the optional per-host .newscrawl YAML file.
package config
