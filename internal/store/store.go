// Package store persists the magazine catalog in SQLite and executes the
// hybrid lexical + vector-similarity search query. Embeddings live in a
// BLOB column; vec_distance_ip, registered on the driver, makes them
// rankable directly in ORDER BY.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/errors"
)

// Store is the SQLite-backed record store for the magazine catalog.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) a catalog store at path.
// ":memory:" opens an in-memory store for testing.
func New(path string) (*Store, error) {
	registerVectorFunctions()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Newf(errors.CodeStore, err, "failed to create directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStore, fmt.Errorf("failed to open database: %w", err))
	}

	// Single connection: keeps SQLite lock contention away and, for
	// ":memory:", keeps every statement on the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite.
	// Foreign keys stay unenforced: content rows may reference magazine
	// ids that never arrive, and such rows simply never join into results.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(errors.CodeStore, fmt.Errorf("failed to set pragma: %w", err))
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.CodeStore, fmt.Errorf("failed to initialize schema: %w", err))
	}
	return s, nil
}

// initSchema creates the catalog tables and lexical lookup indexes.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS magazine_info (
		id               INTEGER PRIMARY KEY,
		title            TEXT,
		author           TEXT,
		publication_date TEXT,
		category         TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_magazine_info_title  ON magazine_info(title);
	CREATE INDEX IF NOT EXISTS idx_magazine_info_author ON magazine_info(author);

	CREATE TABLE IF NOT EXISTS magazine_content (
		id          INTEGER PRIMARY KEY,
		magazine_id INTEGER REFERENCES magazine_info(id),
		content     TEXT,
		embedding   BLOB
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Tx is an open store transaction. Upserts applied through it become
// visible atomically on Commit; the ingestion run owns this boundary.
type Tx struct {
	tx *sql.Tx
}

// Begin starts a store transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStore, fmt.Errorf("failed to begin transaction: %w", err))
	}
	return &Tx{tx: tx}, nil
}

// UpsertMagazine inserts or replaces a magazine by primary key id.
func (t *Tx) UpsertMagazine(ctx context.Context, m *catalog.Magazine) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO magazine_info (id, title, author, publication_date, category)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title            = excluded.title,
			author           = excluded.author,
			publication_date = excluded.publication_date,
			category         = excluded.category`,
		m.ID, m.Title, m.Author, m.PublicationDate.String(), m.Category)
	if err != nil {
		return errors.Newf(errors.CodeStore, err, "failed to upsert magazine %d", m.ID)
	}
	return nil
}

// UpsertContent inserts or replaces a content record by primary key id.
// The referenced magazine id is not validated; a dangling reference simply
// never joins into search results.
func (t *Tx) UpsertContent(ctx context.Context, c *catalog.MagazineContent) error {
	if len(c.Embedding) != embed.Dimensions {
		return errors.Newf(errors.CodeStore, nil,
			"content %d embedding has %d dimensions, want %d", c.ID, len(c.Embedding), embed.Dimensions)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO magazine_content (id, magazine_id, content, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			magazine_id = excluded.magazine_id,
			content     = excluded.content,
			embedding   = excluded.embedding`,
		c.ID, c.MagazineID, c.Content, EncodeEmbedding(c.Embedding))
	if err != nil {
		return errors.Newf(errors.CodeStore, err, "failed to upsert content %d", c.ID)
	}
	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(errors.CodeStore, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// UpsertMagazine inserts or replaces a single magazine in its own transaction.
func (s *Store) UpsertMagazine(ctx context.Context, m *catalog.Magazine) error {
	return s.inTx(ctx, func(tx *Tx) error { return tx.UpsertMagazine(ctx, m) })
}

// UpsertContent inserts or replaces a single content record in its own transaction.
func (s *Store) UpsertContent(ctx context.Context, c *catalog.MagazineContent) error {
	return s.inTx(ctx, func(tx *Tx) error { return tx.UpsertContent(ctx, c) })
}

func (s *Store) inTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMagazine fetches a magazine by id. Returns sql.ErrNoRows (wrapped)
// when no such row exists.
func (s *Store) GetMagazine(ctx context.Context, id int64) (*catalog.Magazine, error) {
	var m catalog.Magazine
	var pubDate string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, publication_date, category
		FROM magazine_info WHERE id = ?`, id).
		Scan(&m.ID, &m.Title, &m.Author, &pubDate, &m.Category)
	if err != nil {
		return nil, errors.Newf(errors.CodeStore, err, "failed to get magazine %d", id)
	}
	if m.PublicationDate, err = catalog.ParseDate(pubDate); err != nil {
		return nil, errors.Wrap(errors.CodeStore, err)
	}
	return &m, nil
}

// Counts returns the number of magazine and content rows.
func (s *Store) Counts(ctx context.Context) (magazines, contents int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM magazine_info`).Scan(&magazines); err != nil {
		return 0, 0, errors.Wrap(errors.CodeStore, err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM magazine_content`).Scan(&contents); err != nil {
		return 0, 0, errors.Wrap(errors.CodeStore, err)
	}
	return magazines, contents, nil
}

// Close closes the store, checkpointing the WAL first.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
