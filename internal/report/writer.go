package report

import (
	"io"

	"github.com/nao1215/newscrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteCrawl outputs the summary of one crawl run.
	WriteCrawl(report *model.CrawlReport) (int, error)

	// WriteArticles outputs the stored articles.
	WriteArticles(articles []model.Article) (int, error)

	// WriteEntities outputs the sentence/entity rows of one article.
	WriteEntities(articleID int64, rows []model.SentenceEntityRow) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatText is human-readable terminal output.
	FormatText Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatMarkdown is GitHub-flavored Markdown.
	FormatMarkdown
)

// New returns the Writer for format, writing to output.
func New(output io.Writer, format Format, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output, WithVerbose(verbose))
	}
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteCrawl outputs the crawl report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteCrawl(report *model.CrawlReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteCrawl(report) })
}

// WriteArticles outputs the articles to all configured Writers.
func (m *MultiWriter) WriteArticles(articles []model.Article) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteArticles(articles) })
}

// WriteEntities outputs the entity rows to all configured Writers.
func (m *MultiWriter) WriteEntities(articleID int64, rows []model.SentenceEntityRow) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteEntities(articleID, rows) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// skipOrder lists error kinds in the order reports print them.
var skipOrder = []model.ErrorKind{
	model.KindTransport,
	model.KindRobots,
	model.KindParse,
	model.KindStorage,
	model.KindCanceled,
}

// statusText describes the overall outcome of a run.
func statusText(report *model.CrawlReport) string {
	switch {
	case !report.Success:
		return "FAILED - " + report.SeedError
	case report.Canceled:
		return "CANCELED (partial results)"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
