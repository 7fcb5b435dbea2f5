// Package log provides slog loggers that sanitize their output.
//
// The SecureHandler masks values of credential-like attributes (cookies,
// authorization headers, tokens) and value patterns such as bearer tokens,
// and shortens long string values so paragraph text does not flood the log.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", u, "cookie", site.Cookie) // cookie is masked
package log
