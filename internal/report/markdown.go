package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/newscrawl/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteCrawl outputs the crawl report in Markdown format.
func (w *MarkdownWriter) WriteCrawl(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if report.Success {
		w.writeSummary(md, report)
		w.writeSkipped(md, report)
		w.writeStored(md, report)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteArticles outputs the articles as a table.
func (w *MarkdownWriter) WriteArticles(articles []model.Article) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Stored Articles")
	md.PlainText("")

	if len(articles) == 0 {
		md.PlainText("No articles stored.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(articles))
	for i, a := range articles {
		rows[i] = []string{strconv.FormatInt(a.ID, 10), tableCell(a.Title)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Title"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// WriteEntities outputs the entity rows as a table, with the full
// sentence text in collapsible details.
func (w *MarkdownWriter) WriteEntities(articleID int64, rows []model.SentenceEntityRow) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Entities for article " + strconv.FormatInt(articleID, 10))
	md.PlainText("")

	if len(rows) == 0 {
		md.PlainText("No entities recorded.")
		return len(md.String()), md.Build()
	}

	md.PlainText("**" + rows[0].Title + "**")
	md.PlainText("")

	tableRows := make([][]string, len(rows))
	for i, r := range rows {
		tableRows[i] = []string{
			tableCell(r.Entity),
			"`" + tableCell(r.EntityType) + "`",
			strconv.FormatInt(r.SentenceID, 10),
			tableCell(truncateString(r.SentenceText, 60)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Entity", "Type", "Sentence", "Text"},
		Rows:   tableRows,
	})
	md.PlainText("")

	seen := make(map[int64]bool)
	for _, r := range rows {
		if seen[r.SentenceID] {
			continue
		}
		seen[r.SentenceID] = true
		md.Details("Sentence "+strconv.FormatInt(r.SentenceID, 10), r.SentenceText)
	}

	return len(md.String()), md.Build()
}

// cellReplacer escapes pipes and flattens line breaks so text stays in one cell.
var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func tableCell(s string) string {
	return cellReplacer.Replace(s)
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Newscrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Seed", tableCell(report.SeedURL)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")

	if !report.Success {
		md.Cautionf("The seed page could not be crawled: %s", report.SeedError)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	switch {
	case !report.Success:
		return "❌ Failed"
	case report.Canceled:
		return "⚠️ Canceled (partial results)"
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Links found", strconv.Itoa(report.LinksFound)},
			{"Stored", strconv.Itoa(report.Succeeded())},
			{"Skipped", strconv.Itoa(report.Skipped())},
			{"Sentences", strconv.Itoa(report.SentencesStored())},
		},
	})
	md.PlainText("")

	if report.Skipped() > 0 {
		w.writePieChart(md, report)
	}

	switch {
	case report.Canceled:
		md.Warningf("The crawl was canceled after %d of %d links.", len(report.Results), report.LinksFound)
	case report.LinksFound == 0:
		md.Importantf("No links matched the article pattern on %s.", report.SeedURL)
	case report.Skipped() > 0:
		md.Note(fmt.Sprintf("%d link(s) were skipped.", report.Skipped()))
	default:
		md.Tip("Every discovered article was stored.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of skip reasons.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Skip Reasons"),
		piechart.WithShowData(true),
	)

	reasons := report.SkipReasons()
	for _, kind := range skipOrder {
		if n := reasons[kind]; n > 0 {
			chart.LabelAndIntValue(string(kind), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, report *model.CrawlReport) {
	if report.Skipped() == 0 {
		return
	}

	md.H2("Skipped Links")
	md.PlainText("")

	rows := make([][]string, 0, report.Skipped())
	for _, res := range report.Results {
		if res.OK() {
			continue
		}
		rows = append(rows, []string{
			tableCell(truncateString(res.Link, 60)),
			string(res.Error.Kind),
			tableCell(truncateString(res.ErrorMessage, 80)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Link", "Kind", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStored(md *markdown.Markdown, report *model.CrawlReport) {
	if report.Succeeded() == 0 {
		return
	}

	md.H2("Stored Articles")
	md.PlainText("")

	items := make([]string, 0, report.Succeeded())
	for _, res := range report.Results {
		if res.OK() {
			items = append(items, res.Title+" ("+strconv.Itoa(res.Sentences)+" sentences)")
		}
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [newscrawl](https://github.com/nao1215/newscrawl)*")
}
