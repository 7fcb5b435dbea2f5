package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/newscrawl/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Summary holds the totals derived from a crawl report.
type Summary struct {
	Stored      int                     `json:"stored"`
	Skipped     int                     `json:"skipped"`
	Sentences   int                     `json:"sentences"`
	DurationMS  int64                   `json:"duration_ms"`
	SkipReasons map[model.ErrorKind]int `json:"skip_reasons"`
}

// CrawlJSON is the JSON document written for a crawl run.
type CrawlJSON struct {
	Report  *model.CrawlReport `json:"report"`
	Summary Summary            `json:"summary"`
}

// NewCrawlJSON wraps report with its derived totals.
func NewCrawlJSON(report *model.CrawlReport) *CrawlJSON {
	return &CrawlJSON{
		Report: report,
		Summary: Summary{
			Stored:      report.Succeeded(),
			Skipped:     report.Skipped(),
			Sentences:   report.SentencesStored(),
			DurationMS:  report.Duration().Milliseconds(),
			SkipReasons: report.SkipReasons(),
		},
	}
}

// WriteCrawl outputs the crawl report and its summary.
func (w *JSONWriter) WriteCrawl(report *model.CrawlReport) (int, error) {
	return w.writeJSON(NewCrawlJSON(report))
}

// WriteArticles outputs {"articles": [...]}.
func (w *JSONWriter) WriteArticles(articles []model.Article) (int, error) {
	if articles == nil {
		articles = []model.Article{}
	}
	return w.writeJSON(struct {
		Articles []model.Article `json:"articles"`
	}{articles})
}

// WriteEntities outputs {"article_id": n, "entities": [...]}.
func (w *JSONWriter) WriteEntities(articleID int64, rows []model.SentenceEntityRow) (int, error) {
	if rows == nil {
		rows = []model.SentenceEntityRow{}
	}
	return w.writeJSON(struct {
		ArticleID int64                     `json:"article_id"`
		Entities  []model.SentenceEntityRow `json:"entities"`
	}{articleID, rows})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
