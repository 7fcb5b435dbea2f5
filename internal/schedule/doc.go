// Package schedule runs crawls repeatedly on a cron expression.
//
// Runs never overlap: a tick that fires while the previous crawl is still
// going is skipped. Cron's own log output is bridged to slog.
package schedule
