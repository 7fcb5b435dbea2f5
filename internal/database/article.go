package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/newscrawl/internal/model"
)

var (
	// ErrDuplicateTitle is returned when an article with the same title
	// is already stored.
	ErrDuplicateTitle = errors.New("article title already stored")

	// ErrMissingReference is returned when a row references a parent
	// (article or sentence) that does not exist.
	ErrMissingReference = errors.New("referenced row does not exist")

	// ErrEmptyTitle is returned when InsertArticle is given a blank title.
	ErrEmptyTitle = errors.New("article title is empty")
)

// InsertArticle stores an article and one sentence per paragraph, in
// paragraph order, inside a single transaction. On any error nothing is
// written. It returns the new article's id.
func (cdb *CrawlDB) InsertArticle(ctx context.Context, title string, paragraphs []string) (int64, error) {
	if title == "" {
		return 0, ErrEmptyTitle
	}

	tx, err := cdb.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `INSERT INTO article (title) VALUES (?)`, title)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article %q: %w", title, classify(err))
	}
	articleID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read article id: %w", err)
	}

	if err := insertSentences(ctx, tx, articleID, paragraphs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit article %q: %w", title, err)
	}
	return articleID, nil
}

func insertSentences(ctx context.Context, tx *sqlx.Tx, articleID int64, paragraphs []string) error {
	if len(paragraphs) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO sentence (sent, article_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sentence insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range paragraphs {
		if _, err := stmt.ExecContext(ctx, p, articleID, i); err != nil {
			return fmt.Errorf("failed to insert sentence %d: %w", i, classify(err))
		}
	}
	return nil
}

// InsertNamedEntity stores one entity for an existing sentence.
// A missing sentence yields ErrMissingReference.
func (cdb *CrawlDB) InsertNamedEntity(ctx context.Context, entity model.NamedEntity) (int64, error) {
	result, err := cdb.db.NamedExecContext(ctx,
		`INSERT INTO ner (entity, entity_type, sentence_id) VALUES (:entity, :entity_type, :sentence_id)`,
		entity)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entity %q: %w", entity.Entity, classify(err))
	}
	return result.LastInsertId()
}

// ListArticles yields every stored article. Each range over the returned
// sequence runs the query again. Order is unspecified.
func (cdb *CrawlDB) ListArticles(ctx context.Context) iter.Seq2[model.Article, error] {
	return queryRows[model.Article](ctx, cdb.db, `SELECT id, title FROM article`)
}

// ListSentences yields the sentences of one article in paragraph order.
func (cdb *CrawlDB) ListSentences(ctx context.Context, articleID int64) iter.Seq2[model.Sentence, error] {
	return queryRows[model.Sentence](ctx, cdb.db,
		`SELECT id, sent, article_id, position FROM sentence WHERE article_id = ? ORDER BY position`,
		articleID)
}

// ListEntitiesForArticle yields one row per (sentence, entity) pair of
// the given article. Sentences without entities produce no rows, and an
// unknown article id yields an empty sequence. Order is unspecified.
func (cdb *CrawlDB) ListEntitiesForArticle(ctx context.Context, articleID int64) iter.Seq2[model.SentenceEntityRow, error] {
	return queryRows[model.SentenceEntityRow](ctx, cdb.db, `
		SELECT n.entity, n.entity_type, n.sentence_id, s.sent, a.title
		FROM article a
		INNER JOIN sentence s ON a.id = s.article_id
		INNER JOIN ner n ON n.sentence_id = s.id
		WHERE a.id = ?`,
		articleID)
}

// GetArticle returns the article with the given id.
// It reports false when no such article exists.
func (cdb *CrawlDB) GetArticle(ctx context.Context, articleID int64) (model.Article, bool, error) {
	var article model.Article
	err := cdb.db.GetContext(ctx, &article, `SELECT id, title FROM article WHERE id = ?`, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, false, nil
	}
	if err != nil {
		return model.Article{}, false, fmt.Errorf("failed to get article %d: %w", articleID, err)
	}
	return article, true, nil
}

// Counts holds the row counts of the three tables.
type Counts struct {
	Articles  int64 `json:"articles" db:"articles"`
	Sentences int64 `json:"sentences" db:"sentences"`
	Entities  int64 `json:"entities" db:"entities"`
}

// Counts returns the number of rows in each table.
func (cdb *CrawlDB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := cdb.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM article) AS articles,
			(SELECT COUNT(*) FROM sentence) AS sentences,
			(SELECT COUNT(*) FROM ner) AS entities`)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

// queryRows returns a sequence that runs query on each iteration and
// struct-scans every row into T. The first error ends the sequence.
func queryRows[T any](ctx context.Context, db *sqlx.DB, query string, args ...any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		rows, err := db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var v T
			if err := rows.StructScan(&v); err != nil {
				yield(zero, fmt.Errorf("failed to scan row: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("failed to read rows: %w", err))
		}
	}
}

// classify maps SQLite constraint failures to package errors.
func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%w: %v", ErrDuplicateTitle, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %v", ErrMissingReference, err)
	default:
		return err
	}
}
