package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/newscrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists stored links too, not only skipped ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteCrawl outputs the crawl report in human-readable format.
func (w *SimpleWriter) WriteCrawl(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	if report.Success {
		w.writeSummary(&sb, report)
		w.writeResults(&sb, report)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteArticles outputs one "id<TAB>title" line per article.
func (w *SimpleWriter) WriteArticles(articles []model.Article) (int, error) {
	var sb strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&sb, "%d\t%s\n", a.ID, a.Title)
	}
	if len(articles) == 0 {
		sb.WriteString("no articles stored\n")
	}
	return io.WriteString(w.output, sb.String())
}

// WriteEntities outputs one block per entity row.
func (w *SimpleWriter) WriteEntities(articleID int64, rows []model.SentenceEntityRow) (int, error) {
	var sb strings.Builder
	if len(rows) == 0 {
		fmt.Fprintf(&sb, "no entities for article %d\n", articleID)
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "Article %d: %s\n\n", articleID, rows[0].Title)
	for _, r := range rows {
		fmt.Fprintf(&sb, "  %-30s %-10s sentence %d\n", r.Entity, r.EntityType, r.SentenceID)
		if w.verbose {
			fmt.Fprintf(&sb, "    %s\n", truncateString(r.SentenceText, 120))
		}
	}
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         NEWSCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Run ID:    %s\n", report.RunID)
	fmt.Fprintf(sb, "Seed:      %s\n", report.SeedURL)
	fmt.Fprintf(sb, "Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:    %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Links found:  %d\n", report.LinksFound)
	fmt.Fprintf(sb, "  Stored:       %d\n", report.Succeeded())
	fmt.Fprintf(sb, "  Skipped:      %d\n", report.Skipped())
	fmt.Fprintf(sb, "  Sentences:    %d\n", report.SentencesStored())

	reasons := report.SkipReasons()
	for _, kind := range skipOrder {
		if n := reasons[kind]; n > 0 {
			fmt.Fprintf(sb, "    %-10s %d\n", kind+":", n)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.CrawlReport) {
	if report.Skipped() == 0 && !w.verbose {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, res := range report.Results {
		if res.OK() {
			if w.verbose {
				fmt.Fprintf(sb, "  [+] %s (%d sentences)\n", res.Title, res.Sentences)
			}
			continue
		}
		fmt.Fprintf(sb, "  [-] %s\n", res.Link)
		fmt.Fprintf(sb, "      %s\n", res.ErrorMessage)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
