package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/crawler"
	"github.com/nao1215/newscrawl/internal/database"
	"github.com/nao1215/newscrawl/internal/model"
)

// newsSite serves a seed page at "/" linking to every key of articles in
// the given order, and each article body at its path. A path missing
// from articles answers 404.
func newsSite(t *testing.T, order []string, articles map[string]string) *httptest.Server {
	t.Helper()

	var seed strings.Builder
	seed.WriteString(`<html><body><a href="/about/">About</a>`)
	for _, path := range order {
		fmt.Fprintf(&seed, `<a href="%s">story</a>`, path)
	}
	seed.WriteString(`</body></html>`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/" {
			fmt.Fprint(w, seed.String())
			return
		}
		body, ok := articles[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func articlePage(title string, paragraphs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1 class="headline">%s</h1><article>`, title)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "<p>%s</p>", p)
	}
	b.WriteString(`</article></body></html>`)
	return b.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "news.db")
	cfg.ArticlePattern = `/news/\d+/`
	cfg.TitleSelector = "h1.headline"
	return cfg
}

func openStore(t *testing.T, cfg *config.Config) *database.CrawlDB {
	t.Helper()

	db, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// countingLimiter never sleeps and counts its calls.
type countingLimiter struct {
	calls  int
	onWait func(call int) error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls++
	if l.onWait != nil {
		if err := l.onWait(l.calls); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func newTestRunner(cfg *config.Config, server *httptest.Server, store ArticleStore, limiter crawler.Limiter) *Runner {
	fetcher := crawler.NewFetcher(server.Client(), crawler.WithUserAgent("TestBot"))
	return NewRunner(cfg, fetcher, store,
		WithLimiter(limiter),
		WithRunIDFunc(func() string { return "run-1" }),
	)
}

func mustCounts(t *testing.T, db *database.CrawlDB) database.Counts {
	t.Helper()

	c, err := db.Counts(context.Background())
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return c
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()

	var out []T
	for v, err := range seq {
		if err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
		out = append(out, v)
	}
	return out
}

func TestRunnerCrawl(t *testing.T) {
	t.Parallel()

	t.Run("stores every discovered article", func(t *testing.T) {
		t.Parallel()

		server := newsSite(t, []string{"/news/1/", "/news/2/"}, map[string]string{
			"/news/1/": articlePage("Alpha", "a1", "a2"),
			"/news/2/": articlePage("Beta", "b1", "b2"),
		})
		cfg := testConfig(t)
		db := openStore(t, cfg)
		limiter := &countingLimiter{}

		report, err := newTestRunner(cfg, server, db, limiter).Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !report.Success || report.RunID != "run-1" || report.Canceled {
			t.Errorf("unexpected report header %+v", report)
		}
		if report.LinksFound != 2 || report.Succeeded() != 2 || report.SentencesStored() != 4 {
			t.Errorf("unexpected totals found=%d ok=%d sentences=%d",
				report.LinksFound, report.Succeeded(), report.SentencesStored())
		}
		if report.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
		if limiter.calls != 2 {
			t.Errorf("expected one wait per link, got %d", limiter.calls)
		}

		if c := mustCounts(t, db); c.Articles != 2 || c.Sentences != 4 || c.Entities != 0 {
			t.Errorf("unexpected counts %+v", c)
		}

		articles := collect(t, db.ListArticles(context.Background()))
		byTitle := make(map[string]int64, len(articles))
		for _, a := range articles {
			byTitle[a.Title] = a.ID
		}
		betaID, ok := byTitle["Beta"]
		if len(articles) != 2 || len(byTitle) != 2 || !ok {
			t.Fatalf("unexpected articles %v", articles)
		}
		if _, ok := byTitle["Alpha"]; !ok {
			t.Fatalf("expected Alpha among %v", articles)
		}
		sentences := collect(t, db.ListSentences(context.Background(), betaID))
		if len(sentences) != 2 || sentences[0].Text != "b1" || sentences[1].Text != "b2" {
			t.Errorf("unexpected sentences %v", sentences)
		}
	})

	t.Run("seed failure stores nothing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		cfg := testConfig(t)
		db := openStore(t, cfg)
		limiter := &countingLimiter{}

		report, err := newTestRunner(cfg, server, db, limiter).Crawl(context.Background(), server.URL+"/")
		if err == nil {
			t.Fatal("expected seed error")
		}
		if !errors.Is(err, crawler.ErrUnexpectedStatus) || model.KindOf(err) != model.KindTransport {
			t.Errorf("expected transport ErrUnexpectedStatus, got %v", err)
		}
		if report.Success || report.SeedError == "" || len(report.Results) != 0 {
			t.Errorf("unexpected report %+v", report)
		}
		if limiter.calls != 0 {
			t.Errorf("expected no waits, got %d", limiter.calls)
		}
		if c := mustCounts(t, db); c.Articles != 0 || c.Sentences != 0 {
			t.Errorf("expected empty tables, got %+v", c)
		}
	})

	t.Run("invalid seed URL", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t)
		db := openStore(t, cfg)
		runner := NewRunner(cfg, crawler.NewFetcher(http.DefaultClient), db, WithLimiter(&countingLimiter{}))

		report, err := runner.Crawl(context.Background(), "not a url")
		if model.KindOf(err) != model.KindParse || report.Success {
			t.Errorf("expected parse failure, got %v", err)
		}
	})

	t.Run("per-link failures are skipped", func(t *testing.T) {
		t.Parallel()

		server := newsSite(t, []string{"/news/1/", "/news/2/", "/news/3/", "/news/4/", "/news/5/"}, map[string]string{
			"/news/1/": articlePage("Alpha", "a1"),
			"/news/3/": `<html><body><h1>No class</h1><article><p>x</p></article></body></html>`,
			"/news/4/": articlePage("Alpha", "again"),
			"/news/5/": articlePage("Gamma"),
		})
		cfg := testConfig(t)
		db := openStore(t, cfg)

		report, err := newTestRunner(cfg, server, db, &countingLimiter{}).Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !report.Success || len(report.Results) != 5 {
			t.Fatalf("unexpected report %+v", report)
		}
		wantKinds := []model.ErrorKind{"", model.KindTransport, model.KindParse, model.KindStorage, ""}
		for i, want := range wantKinds {
			res := report.Results[i]
			got := model.ErrorKind("")
			if res.Error != nil {
				got = res.Error.Kind
			}
			if got != want {
				t.Errorf("result %d (%s): expected kind %q, got %q", i, res.Link, want, got)
			}
		}
		if !errors.Is(report.Results[3].Error, database.ErrDuplicateTitle) {
			t.Errorf("expected duplicate title, got %v", report.Results[3].Error)
		}
		if report.Results[4].Sentences != 0 || !report.Results[4].OK() {
			t.Errorf("expected zero-paragraph article to be stored, got %+v", report.Results[4])
		}

		if c := mustCounts(t, db); c.Articles != 2 || c.Sentences != 1 {
			t.Errorf("unexpected counts %+v", c)
		}
	})

	t.Run("second crawl of the same site skips duplicates", func(t *testing.T) {
		t.Parallel()

		server := newsSite(t, []string{"/news/1/", "/news/2/"}, map[string]string{
			"/news/1/": articlePage("Alpha", "a1"),
			"/news/2/": articlePage("Beta", "b1"),
		})
		cfg := testConfig(t)
		db := openStore(t, cfg)
		runner := newTestRunner(cfg, server, db, &countingLimiter{})

		if _, err := runner.Crawl(context.Background(), server.URL+"/"); err != nil {
			t.Fatalf("first crawl failed: %v", err)
		}
		report, err := runner.Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("second crawl failed: %v", err)
		}

		if !report.Success || report.Succeeded() != 0 || report.SkipReasons()[model.KindStorage] != 2 {
			t.Errorf("expected two storage skips, got %+v", report.SkipReasons())
		}
		if c := mustCounts(t, db); c.Articles != 2 || c.Sentences != 2 {
			t.Errorf("unexpected counts %+v", c)
		}
	})

	t.Run("cancellation stops remaining links", func(t *testing.T) {
		t.Parallel()

		server := newsSite(t, []string{"/news/1/", "/news/2/", "/news/3/"}, map[string]string{
			"/news/1/": articlePage("Alpha", "a1"),
			"/news/2/": articlePage("Beta", "b1"),
			"/news/3/": articlePage("Gamma", "c1"),
		})
		cfg := testConfig(t)
		db := openStore(t, cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		limiter := &countingLimiter{onWait: func(call int) error {
			if call == 2 {
				cancel()
			}
			return nil
		}}

		report, err := newTestRunner(cfg, server, db, limiter).Crawl(ctx, server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !report.Success || !report.Canceled {
			t.Errorf("expected successful canceled report, got %+v", report)
		}
		if len(report.Results) != 2 || report.Results[1].Error.Kind != model.KindCanceled {
			t.Fatalf("expected stored then canceled, got %+v", report.Results)
		}
		if limiter.calls != 2 {
			t.Errorf("expected the third link not to be attempted, got %d waits", limiter.calls)
		}
		if c := mustCounts(t, db); c.Articles != 1 {
			t.Errorf("expected 1 article, got %+v", c)
		}
	})

	t.Run("robots.txt disallow is skipped", func(t *testing.T) {
		t.Parallel()

		server := newsSite(t, []string{"/news/1/", "/news/2/"}, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /news/2/\n",
			"/news/1/":    articlePage("Alpha", "a1"),
			"/news/2/":    articlePage("Beta", "b1"),
		})
		cfg := testConfig(t)
		cfg.RespectRobots = true
		db := openStore(t, cfg)
		limiter := &countingLimiter{}

		report, err := newTestRunner(cfg, server, db, limiter).Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Succeeded() != 1 || report.SkipReasons()[model.KindRobots] != 1 {
			t.Errorf("unexpected outcome %+v", report.Results)
		}
		if limiter.calls != 1 {
			t.Errorf("expected no politeness wait for the disallowed link, got %d waits", limiter.calls)
		}
	})

	t.Run("site cookie and overrides apply", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("consent"); err != nil || c.Value != "yes" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if r.URL.Path == "/" {
				fmt.Fprint(w, `<a href="/story/9">x</a><a href="/news/1/">y</a>`)
				return
			}
			fmt.Fprint(w, `<div class="title">Custom</div><main><p>body</p></main>`)
		}))
		t.Cleanup(server.Close)

		cfg := testConfig(t)
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{
			"127.0.0.1": {
				Cookie:          "consent=yes",
				ArticlePattern:  `/story/\d+`,
				TitleSelector:   "div.title",
				ArticleSelector: "main",
			},
		}}
		db := openStore(t, cfg)

		report, err := newTestRunner(cfg, server, db, &countingLimiter{}).Crawl(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.LinksFound != 1 || report.Succeeded() != 1 || report.Results[0].Title != "Custom" {
			t.Errorf("unexpected report %+v", report.Results)
		}
	})
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	if _, ok := NewLimiter(cfg).(*crawler.JitterLimiter); !ok {
		t.Error("expected jitter limiter by default")
	}

	cfg.Limiter = config.LimiterInterval
	if _, ok := NewLimiter(cfg).(*crawler.IntervalLimiter); !ok {
		t.Error("expected interval limiter")
	}
}
