package config

import "maps"

// SiteConfig holds per-host crawl settings.
// Empty fields fall through to the next layer when merged.
type SiteConfig struct {
	// ArticlePattern overrides the regular expression for article links.
	ArticlePattern string `yaml:"articlePattern,omitempty"`

	// TitleSelector overrides the CSS selector for the heading.
	TitleSelector string `yaml:"titleSelector,omitempty"`

	// ArticleSelector overrides the CSS selector for the body container.
	ArticleSelector string `yaml:"articleSelector,omitempty"`

	// ParagraphSelector overrides the CSS selector for body paragraphs.
	ParagraphSelector string `yaml:"paragraphSelector,omitempty"`

	// Cookie is an HTTP cookie sent with every request to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .newscrawl configuration file.
type File struct {
	// Sites maps host names (e.g. "globalnews.ca") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merging the
// host entry over the file defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults.merge(SiteConfig{})
	if siteConfig, ok := cf.Sites[host]; ok {
		result = result.merge(siteConfig)
	}
	return result
}

// merge returns s with every non-empty field of override applied.
// Headers are combined, override keys winning.
func (s SiteConfig) merge(override SiteConfig) SiteConfig {
	result := s
	if override.ArticlePattern != "" {
		result.ArticlePattern = override.ArticlePattern
	}
	if override.TitleSelector != "" {
		result.TitleSelector = override.TitleSelector
	}
	if override.ArticleSelector != "" {
		result.ArticleSelector = override.ArticleSelector
	}
	if override.ParagraphSelector != "" {
		result.ParagraphSelector = override.ParagraphSelector
	}
	if override.Cookie != "" {
		result.Cookie = override.Cookie
	}
	if len(s.Headers) > 0 || len(override.Headers) > 0 {
		headers := make(map[string]string, len(s.Headers)+len(override.Headers))
		maps.Copy(headers, s.Headers)
		maps.Copy(headers, override.Headers)
		result.Headers = headers
	}
	return result
}
