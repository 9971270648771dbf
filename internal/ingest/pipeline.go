// Package ingest loads the magazine catalog from tabular CSV sources into
// the store: metadata rows, content rows embedded through the embedding
// provider, all committed in a single transaction per run.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/gofrs/flock"

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/errors"
	"github.com/hexline/magsearch/internal/store"
)

// ErrLocked is returned when another ingestion run holds the lock.
var ErrLocked = errors.New(errors.CodeIngestLocked, "another ingestion run is in progress", nil)

// Stats reports what an ingestion run wrote.
type Stats struct {
	Magazines int
	Contents  int
}

// Pipeline ingests catalog CSVs into the store.
type Pipeline struct {
	store    *store.Store
	embedder embed.Embedder
	lockPath string
	logger   *slog.Logger
}

// New creates an ingestion pipeline. lockPath guards against concurrent
// runs; an empty lockPath disables locking (used by tests).
func New(s *store.Store, e embed.Embedder, lockPath string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: s, embedder: e, lockPath: lockPath, logger: logger}
}

// Run reads both CSV sources, embeds content, and upserts everything in one
// store transaction. Any parse or embed error aborts the run with nothing
// committed. Re-running with the same ids overwrites rather than duplicates.
func (p *Pipeline) Run(ctx context.Context, infoPath, contentPath string) (Stats, error) {
	if p.lockPath != "" {
		lock := flock.New(p.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return Stats{}, errors.Newf(errors.CodeIngestLocked, err, "failed to acquire ingest lock %s", p.lockPath)
		}
		if !locked {
			return Stats{}, ErrLocked
		}
		defer func() { _ = lock.Unlock() }()
	}

	magazines, err := readMagazines(infoPath)
	if err != nil {
		return Stats{}, err
	}

	contents, err := p.readContents(ctx, contentPath)
	if err != nil {
		return Stats{}, err
	}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range magazines {
		if err := tx.UpsertMagazine(ctx, &magazines[i]); err != nil {
			return Stats{}, err
		}
	}
	for i := range contents {
		if err := tx.UpsertContent(ctx, &contents[i]); err != nil {
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Magazines: len(magazines), Contents: len(contents)}
	p.logger.Info("ingest_complete",
		slog.String("info_path", infoPath),
		slog.String("content_path", contentPath),
		slog.Int("magazines", stats.Magazines),
		slog.Int("contents", stats.Contents))
	return stats, nil
}

// readMagazines parses the metadata CSV (id,title,author,publication_date,category).
func readMagazines(path string) ([]catalog.Magazine, error) {
	rows, cols, err := readCSV(path, "id", "title", "author", "publication_date", "category")
	if err != nil {
		return nil, err
	}

	magazines := make([]catalog.Magazine, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[cols["id"]], path, i)
		if err != nil {
			return nil, err
		}
		pubDate, err := dateparse.ParseAny(row[cols["publication_date"]])
		if err != nil {
			return nil, errors.Newf(errors.CodeIngestParse, err,
				"%s row %d: unparseable publication_date %q", path, i+1, row[cols["publication_date"]])
		}
		magazines = append(magazines, catalog.Magazine{
			ID:              id,
			Title:           row[cols["title"]],
			Author:          row[cols["author"]],
			PublicationDate: catalog.NewDate(pubDate),
			Category:        row[cols["category"]],
		})
	}
	return magazines, nil
}

// readContents parses the content CSV (id,magazine_id,content) and embeds
// every content body through the embedding provider.
func (p *Pipeline) readContents(ctx context.Context, path string) ([]catalog.MagazineContent, error) {
	rows, cols, err := readCSV(path, "id", "magazine_id", "content")
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row[cols["content"]]
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIngestParse, fmt.Errorf("failed to embed content: %w", err))
	}

	contents := make([]catalog.MagazineContent, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[cols["id"]], path, i)
		if err != nil {
			return nil, err
		}
		magazineID, err := parseID(row[cols["magazine_id"]], path, i)
		if err != nil {
			return nil, err
		}
		contents = append(contents, catalog.MagazineContent{
			ID:         id,
			MagazineID: magazineID,
			Content:    texts[i],
			Embedding:  embeddings[i],
		})
	}
	return contents, nil
}

// readCSV reads a headered CSV and returns its data rows plus a map from
// the required column names to their positions.
func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Newf(errors.CodeIngestParse, err, "failed to open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, errors.Newf(errors.CodeIngestParse, err, "failed to read header of %s", path)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, errors.Newf(errors.CodeIngestParse, nil, "%s: missing column %q", path, name)
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Newf(errors.CodeIngestParse, err, "failed to read %s", path)
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

// parseID parses an integer id column value.
func parseID(s, path string, row int) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Newf(errors.CodeIngestParse, err, "%s row %d: invalid id %q", path, row+1, s)
	}
	return id, nil
}
