package crawler

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrTitleNotFound is returned when the title selector matches nothing
	// or matches an empty heading.
	ErrTitleNotFound = errors.New("article title not found")

	// ErrArticleNotFound is returned when the article container is missing.
	ErrArticleNotFound = errors.New("article container not found")
)

// Extracted is the content pulled from one article page.
type Extracted struct {
	Title      string
	Paragraphs []string
}

// Extractor selects the title and body paragraphs of an article page.
type Extractor struct {
	titleSelector     string
	articleSelector   string
	paragraphSelector string
}

// NewExtractor creates an Extractor. The first element matching
// articleSelector is the container; every element inside it matching
// paragraphSelector is one paragraph.
func NewExtractor(titleSelector, articleSelector, paragraphSelector string) *Extractor {
	return &Extractor{
		titleSelector:     titleSelector,
		articleSelector:   articleSelector,
		paragraphSelector: paragraphSelector,
	}
}

// Extract parses an article document. Paragraphs keep document order and
// are kept even when empty, so the count equals the number of matched
// elements. A container without paragraphs is not an error.
func (e *Extractor) Extract(r io.Reader) (*Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}

	heading := doc.Find(e.titleSelector).First()
	if heading.Length() == 0 {
		return nil, fmt.Errorf("%w: no match for %q", ErrTitleNotFound, e.titleSelector)
	}
	title := cleanText(heading.Text())
	if title == "" {
		return nil, fmt.Errorf("%w: %q is empty", ErrTitleNotFound, e.titleSelector)
	}

	container := doc.Find(e.articleSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: no match for %q", ErrArticleNotFound, e.articleSelector)
	}

	paragraphs := make([]string, 0)
	container.Find(e.paragraphSelector).Each(func(_ int, s *goquery.Selection) {
		paragraphs = append(paragraphs, cleanText(s.Text()))
	})

	return &Extracted{Title: title, Paragraphs: paragraphs}, nil
}

// cleanText NFC-normalizes s and trims surrounding whitespace, so the
// same visible title always compares equal under the unique constraint.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
