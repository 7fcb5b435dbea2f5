package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/newscrawl/internal/model"
)

// createTestReport creates a report with one stored and two skipped links.
func createTestReport() *model.CrawlReport {
	report := model.NewCrawlReport("run-1234", "https://globalnews.ca/")
	report.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(1500 * time.Millisecond)
	report.Success = true
	report.LinksFound = 3

	report.AddResult(model.LinkResult{
		Link:      "https://globalnews.ca/news/1/",
		URL:       "https://globalnews.ca/news/1/",
		ArticleID: 1,
		Title:     "Wildfire update",
		Sentences: 4,
	})
	report.AddResult(model.LinkResult{
		Link:  "https://globalnews.ca/news/2/",
		Error: model.NewCrawlError(model.KindTransport, "https://globalnews.ca/news/2/", errors.New("unexpected HTTP status: 404")),
	})
	report.AddResult(model.LinkResult{
		Link:  "https://globalnews.ca/news/3/",
		Title: "Wildfire update",
		Error: model.NewCrawlError(model.KindStorage, "https://globalnews.ca/news/3/", errors.New("article title already stored")),
	})
	return report
}

func failedReport() *model.CrawlReport {
	report := model.NewCrawlReport("run-fail", "https://globalnews.ca/")
	report.SeedError = "transport error: connection refused"
	return report
}

func testEntities() []model.SentenceEntityRow {
	return []model.SentenceEntityRow{
		{Entity: "Justin Trudeau", EntityType: "PERSON", SentenceID: 7, SentenceText: "Justin Trudeau visited Ottawa.", Title: "Visit"},
		{Entity: "Ottawa", EntityType: "GPE", SentenceID: 7, SentenceText: "Justin Trudeau visited Ottawa.", Title: "Visit"},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteCrawl(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"NEWSCRAWL REPORT",
			"run-1234",
			"Status:    Complete",
			"Links found:  3",
			"Stored:       1",
			"Skipped:      2",
			"Sentences:    4",
			"transport: 1",
			"storage:   1",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("lists skipped links only by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf).WriteCrawl(createTestReport())

		output := buf.String()
		if !strings.Contains(output, "[-] https://globalnews.ca/news/2/") {
			t.Error("expected skipped link")
		}
		if strings.Contains(output, "[+]") {
			t.Error("did not expect stored links without verbose")
		}
	})

	t.Run("verbose lists stored links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf, WithVerbose(true)).WriteCrawl(createTestReport())

		if !strings.Contains(buf.String(), "[+] Wildfire update (4 sentences)") {
			t.Errorf("expected stored link in verbose output\n%s", buf.String())
		}
	})

	t.Run("failed seed omits summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf).WriteCrawl(failedReport())

		output := buf.String()
		if !strings.Contains(output, "FAILED - transport error: connection refused") {
			t.Errorf("expected failure status\n%s", output)
		}
		if strings.Contains(output, "SUMMARY") {
			t.Error("did not expect summary for failed seed")
		}
	})

	t.Run("canceled status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Canceled = true

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf).WriteCrawl(report)
		if !strings.Contains(buf.String(), "CANCELED") {
			t.Error("expected canceled status")
		}
	})

	t.Run("writes articles", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := NewSimpleWriter(&buf).WriteArticles([]model.Article{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "1\tA\n2\tB\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("writes empty article list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf).WriteArticles(nil)
		if !strings.Contains(buf.String(), "no articles") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("writes entities", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf, WithVerbose(true)).WriteEntities(3, testEntities())

		output := buf.String()
		for _, want := range []string{"Article 3: Visit", "Justin Trudeau", "GPE", "visited Ottawa."} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("writes empty entity list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewSimpleWriter(&buf).WriteEntities(9, nil)
		if !strings.Contains(buf.String(), "no entities for article 9") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteCrawl(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Report struct {
				RunID   string `json:"run_id"`
				Success bool   `json:"success"`
				Results []struct {
					Link         string `json:"link"`
					ErrorMessage string `json:"error_message"`
					Error        *struct {
						Kind string `json:"kind"`
					} `json:"error"`
				} `json:"results"`
			} `json:"report"`
			Summary Summary `json:"summary"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}

		if got.Report.RunID != "run-1234" || !got.Report.Success || len(got.Report.Results) != 3 {
			t.Errorf("unexpected report %+v", got.Report)
		}
		if got.Report.Results[1].Error == nil || got.Report.Results[1].Error.Kind != "transport" {
			t.Errorf("expected transport error on result 1, got %+v", got.Report.Results[1])
		}
		if got.Report.Results[1].ErrorMessage == "" {
			t.Error("expected error message")
		}
		if got.Summary.Stored != 1 || got.Summary.Skipped != 2 || got.Summary.Sentences != 4 || got.Summary.DurationMS != 1500 {
			t.Errorf("unexpected summary %+v", got.Summary)
		}
		if got.Summary.SkipReasons[model.KindStorage] != 1 {
			t.Errorf("unexpected skip reasons %v", got.Summary.SkipReasons)
		}
	})

	t.Run("compact output is one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewJSONWriter(&buf).WriteArticles([]model.Article{{ID: 1, Title: "A"}})
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected single line, got %q", buf.String())
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewJSONWriter(&buf, WithPrettyPrint()).WriteArticles([]model.Article{{ID: 1, Title: "A"}})
		if !strings.Contains(buf.String(), "\n  \"articles\"") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewJSONWriter(&buf, WithIndent("", "\t")).WriteArticles(nil)
		if !strings.Contains(buf.String(), "\t\"articles\": []") {
			t.Errorf("expected tab indent and empty array, got %q", buf.String())
		}
	})

	t.Run("writes entities", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewJSONWriter(&buf).WriteEntities(3, testEntities())

		var got struct {
			ArticleID int64                     `json:"article_id"`
			Entities  []model.SentenceEntityRow `json:"entities"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.ArticleID != 3 || len(got.Entities) != 2 || got.Entities[0].SentenceText == "" {
			t.Errorf("unexpected entities %+v", got)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes crawl report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteCrawl(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Newscrawl Report",
			"`run-1234`",
			"## Summary",
			"mermaid",
			"## Skipped Links",
			"## Stored Articles",
			"Wildfire update (4 sentences)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("failed seed shows caution", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteCrawl(failedReport())

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") || !strings.Contains(output, "connection refused") {
			t.Errorf("expected caution alert\n%s", output)
		}
		if strings.Contains(output, "## Summary") {
			t.Error("did not expect summary for failed seed")
		}
	})

	t.Run("clean run shows tip and no chart", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport("run-ok", "https://globalnews.ca/")
		report.Success = true
		report.LinksFound = 1
		report.AddResult(model.LinkResult{Link: "/news/1/", Title: "T", ArticleID: 1})

		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteCrawl(report)

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip alert")
		}
		if strings.Contains(output, "mermaid") {
			t.Error("did not expect chart without skips")
		}
	})

	t.Run("writes articles table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteArticles([]model.Article{{ID: 12, Title: "Budget passes"}})

		output := buf.String()
		if !strings.Contains(output, "ID") || !strings.Contains(output, "Budget passes") {
			t.Errorf("expected articles table\n%s", output)
		}
	})

	t.Run("writes entities with details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteEntities(3, testEntities())

		output := buf.String()
		if !strings.Contains(output, "`PERSON`") || strings.Count(output, "<details>") != 1 {
			t.Errorf("expected one details block for the shared sentence\n%s", output)
		}
	})

	t.Run("escapes pipes in article titles", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteArticles([]model.Article{{ID: 1, Title: "Live | Updates"}})

		output := buf.String()
		if !strings.Contains(output, `Live \| Updates`) {
			t.Errorf("expected escaped pipe in title\n%s", output)
		}
		for _, line := range strings.Split(output, "\n") {
			if strings.Contains(line, "Live") && strings.Count(strings.ReplaceAll(line, `\|`, ""), "|") != 3 {
				t.Errorf("expected a two-column row, got %q", line)
			}
		}
	})

	t.Run("keeps multi-line sentence in one cell", func(t *testing.T) {
		t.Parallel()

		rows := []model.SentenceEntityRow{{
			Title: "T", SentenceID: 1, SentenceText: "first | line\nsecond line",
			Entity: "A|B", EntityType: "ORG",
		}}
		var buf bytes.Buffer
		_, _ = NewMarkdownWriter(&buf).WriteEntities(1, rows)

		output := buf.String()
		if !strings.Contains(output, `first \| line second line`) {
			t.Errorf("expected flattened sentence cell\n%s", output)
		}
		if !strings.Contains(output, `A\|B`) {
			t.Errorf("expected escaped entity\n%s", output)
		}
	})
}

func TestTableCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Budget passes", "Budget passes"},
		{"pipe", "a|b", `a\|b`},
		{"newline", "a\nb", "a b"},
		{"crlf", "a\r\nb", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tableCell(tt.input); got != tt.want {
				t.Errorf("tableCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// mockWriter records calls and optionally fails.
type mockWriter struct {
	calls int
	err   error
}

func (m *mockWriter) WriteCrawl(*model.CrawlReport) (int, error) { return m.record() }
func (m *mockWriter) WriteArticles([]model.Article) (int, error) { return m.record() }
func (m *mockWriter) WriteEntities(int64, []model.SentenceEntityRow) (int, error) {
	return m.record()
}

func (m *mockWriter) record() (int, error) {
	m.calls++
	return 10, m.err
}

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		a, b := &mockWriter{}, &mockWriter{}
		mw := NewMultiWriter(a, b)

		n, err := mw.WriteCrawl(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, _ = mw.WriteArticles(nil)
		_, _ = mw.WriteEntities(1, nil)

		if n != 20 || a.calls != 3 || b.calls != 3 {
			t.Errorf("unexpected totals n=%d a=%d b=%d", n, a.calls, b.calls)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		failing := &mockWriter{err: errors.New("disk full")}
		after := &mockWriter{}

		if _, err := NewMultiWriter(failing, after).WriteCrawl(createTestReport()); err == nil {
			t.Error("expected error")
		}
		if after.calls != 0 {
			t.Error("expected second writer to be skipped")
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, ok := New(&buf, FormatText, false).(*SimpleWriter); !ok {
		t.Error("expected SimpleWriter")
	}
	if _, ok := New(&buf, FormatJSON, false).(*JSONWriter); !ok {
		t.Error("expected JSONWriter")
	}
	if _, ok := New(&buf, FormatMarkdown, false).(*MarkdownWriter); !ok {
		t.Error("expected MarkdownWriter")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"multibyte safe", "Montréal Québec", 8, "Montr..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
