package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// maxOpenConns allows a reader to stay open while the NER collaborator
// writes entities. With WAL enabled readers do not block the writer.
const maxOpenConns = 4

// ErrDatabaseNotFound is returned by Open when the file is missing and
// CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// CrawlDB provides SQLite storage for articles, sentences and named entities.
type CrawlDB struct {
	db     *sqlx.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the parent directory and database file
	// if they don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so reads and writes can overlap.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store at dbPath and ensures the schema exists.
// Existing rows are left untouched; use Reset to start from empty tables.
func Open(dbPath string, opts Options) (*CrawlDB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrDatabaseNotFound)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	// The _pragma parameters are applied by the driver to every new connection.
	dsn := dbPath + "?mode=" + mode +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_txlock=immediate"

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, createSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Reset opens the store at dbPath, creating it if needed, and recreates
// the three tables empty. Calling it twice leaves the same empty schema.
func Reset(ctx context.Context, dbPath string) error {
	cdb, err := Open(dbPath, DefaultOptions())
	if err != nil {
		return err
	}
	defer cdb.Close()

	return cdb.ResetSchema(ctx)
}

// ResetSchema drops ner, sentence and article, in that order, and creates
// them again. All rows are lost.
func (cdb *CrawlDB) ResetSchema(ctx context.Context) error {
	tx, err := cdb.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{dropSchema, createSchema} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// dropSchema removes child tables before their parents.
const dropSchema = `
DROP TABLE IF EXISTS ner;
DROP TABLE IF EXISTS sentence;
DROP TABLE IF EXISTS article;
`

// createSchema defines the storage tables. Each id column is an alias
// of the rowid, so external consumers may refer to either.
const createSchema = `
CREATE TABLE IF NOT EXISTS article (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL UNIQUE
);

-- sent holds one whole paragraph; position is its 0-based place in the article.
CREATE TABLE IF NOT EXISTS sentence (
	id INTEGER PRIMARY KEY,
	sent TEXT NOT NULL,
	article_id INTEGER NOT NULL REFERENCES article(id),
	position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sentence_article ON sentence(article_id);

-- ner is populated by the named-entity recognizer, not by the crawler.
CREATE TABLE IF NOT EXISTS ner (
	id INTEGER PRIMARY KEY,
	entity TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	sentence_id INTEGER NOT NULL REFERENCES sentence(id)
);

CREATE INDEX IF NOT EXISTS idx_ner_sentence ON ner(sentence_id);
`
