package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Link is an article link found on a listing page.
type Link struct {
	// Raw is the href exactly as written in the markup. It is the
	// deduplication key.
	Raw string

	// URL is Raw resolved against the page URL.
	URL string
}

// LinkParser finds anchors whose href matches an article pattern.
type LinkParser struct {
	baseURL *url.URL
	pattern *regexp.Regexp
}

// NewLinkParser creates a parser for a page at baseURL.
func NewLinkParser(baseURL string, pattern *regexp.Regexp) (*LinkParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &LinkParser{baseURL: u, pattern: pattern}, nil
}

// Parse returns the distinct matching links of the document in the order
// they first appear. The pattern is searched for anywhere in the raw href.
func (p *LinkParser) Parse(content io.Reader) ([]Link, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0)
	seen := NewLinkSet()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := getAttr(n, "href")
			if href != "" && p.pattern.MatchString(href) && !seen.Contains(href) {
				if resolved := p.resolveURL(href); resolved != "" {
					seen.Add(href)
					links = append(links, Link{Raw: href, URL: resolved})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveURL resolves href against the base URL. Non-HTTP schemes
// resolve to the empty string.
func (p *LinkParser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
