package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "newscrawl"

	// DefaultDatabaseName is the SQLite file name inside the data directory.
	DefaultDatabaseName = "global_news.db"

	// DefaultSeedURL is the listing page crawled when no seed is given.
	DefaultSeedURL = "https://globalnews.ca/"

	// DefaultArticlePattern matches article links on the default seed.
	// It is searched for anywhere in the raw href, not anchored.
	DefaultArticlePattern = `https://globalnews\.ca/news/\d+/`

	// DefaultTitleSelector selects the article heading.
	DefaultTitleSelector = "h1.l-article__title"

	// DefaultArticleSelector selects the article container.
	DefaultArticleSelector = "article"

	// DefaultParagraphSelector selects paragraphs inside the container.
	DefaultParagraphSelector = "p"

	// DefaultMinDelay and DefaultMaxDelay bound the random pause taken
	// before each article fetch.
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies newscrawl in HTTP requests.
	DefaultUserAgent = "newscrawl/1.0 (+https://github.com/nao1215/newscrawl)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultCronSpec runs the scheduled crawl once an hour.
	DefaultCronSpec = "@hourly"
)

// Limiter kinds accepted by Config.Limiter.
const (
	// LimiterJitter sleeps a uniformly random duration in [MinDelay, MaxDelay].
	LimiterJitter = "jitter"

	// LimiterInterval spaces requests evenly at one per MinDelay.
	LimiterInterval = "interval"
)

// Config holds all configuration options for newscrawl.
// It is populated from defaults, the optional config file and CLI flags,
// then passed down explicitly.
type Config struct {
	// DBPath is the SQLite file holding article, sentence and ner.
	DBPath string

	// SeedURL is the listing page to discover article links from.
	SeedURL string

	// ArticlePattern is the regular expression an href must match to be
	// treated as an article link.
	ArticlePattern string

	// TitleSelector is the CSS selector for the article heading.
	TitleSelector string

	// ArticleSelector is the CSS selector for the article body container.
	ArticleSelector string

	// ParagraphSelector is the CSS selector for paragraphs inside the container.
	ParagraphSelector string

	// Limiter selects the politeness strategy (LimiterJitter or LimiterInterval).
	Limiter string

	// MinDelay is the lower bound of the per-link pause.
	// For LimiterInterval it is the spacing between requests.
	MinDelay time.Duration

	// MaxDelay is the upper bound of the per-link pause.
	MaxDelay time.Duration

	// RespectRobots makes the crawler consult robots.txt before each fetch.
	RespectRobots bool

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .newscrawl is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// CronSpec is the schedule used by the schedule command.
	CronSpec string

	// Overrides holds site settings given explicitly on the command line.
	// They win over the config file.
	Overrides SiteConfig
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBPath:            DefaultDatabasePath(),
		SeedURL:           DefaultSeedURL,
		ArticlePattern:    DefaultArticlePattern,
		TitleSelector:     DefaultTitleSelector,
		ArticleSelector:   DefaultArticleSelector,
		ParagraphSelector: DefaultParagraphSelector,
		Limiter:           LimiterJitter,
		MinDelay:          DefaultMinDelay,
		MaxDelay:          DefaultMaxDelay,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		CronSpec:          DefaultCronSpec,
	}
}

// XDGDataDir returns the XDG data directory for newscrawl.
// On Linux: ~/.local/share/newscrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for newscrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDatabasePath returns the default SQLite file path.
func DefaultDatabasePath() string {
	return filepath.Join(XDGDataDir(), DefaultDatabaseName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return ErrNoDatabasePath
	}

	if err := validateSeedURL(c.SeedURL); err != nil {
		return err
	}

	if _, err := regexp.Compile(c.ArticlePattern); err != nil || c.ArticlePattern == "" {
		return ErrInvalidArticlePattern
	}

	if c.TitleSelector == "" || c.ArticleSelector == "" || c.ParagraphSelector == "" {
		return ErrEmptySelector
	}

	if c.Limiter != LimiterJitter && c.Limiter != LimiterInterval {
		return ErrUnknownLimiter
	}

	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// Site returns the effective site settings for host: the Config's own
// values, then the file defaults, then the host entry, then Overrides,
// later ones winning.
func (c *Config) Site(host string) SiteConfig {
	site := SiteConfig{
		ArticlePattern:    c.ArticlePattern,
		TitleSelector:     c.TitleSelector,
		ArticleSelector:   c.ArticleSelector,
		ParagraphSelector: c.ParagraphSelector,
	}
	if c.SiteConfigs != nil {
		site = site.merge(c.SiteConfigs.GetSiteConfig(host))
	}
	return site.merge(c.Overrides)
}

func validateSeedURL(raw string) error {
	if raw == "" {
		return ErrNoSeedURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSeedURL
	}
	return nil
}
