package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/errors"
)

// DefaultLimit is the result cap when callers pass a non-positive limit.
const DefaultLimit = 10

// hybridSearchSQL is the gate-then-rank query. The LIKE predicates are a
// hard filter: a row must contain the query text in title, author, or
// content to be considered at all. Rows that pass are ranked by cosine
// similarity against the query embedding, computed from inner-product
// distance on unit vectors. ORDER BY sees full precision; rounding is left
// to the output projection.
const hybridSearchSQL = `
	SELECT mi.id, mi.title, mi.author, mi.category, mi.publication_date,
	       mc.content,
	       1.0 - vec_distance_ip(mc.embedding, ?) AS similarity
	FROM magazine_info mi
	JOIN magazine_content mc ON mc.magazine_id = mi.id
	WHERE mi.title  LIKE ? ESCAPE '\'
	   OR mi.author LIKE ? ESCAPE '\'
	   OR mc.content LIKE ? ESCAPE '\'
	ORDER BY similarity DESC
	LIMIT ?`

// SearchHybrid runs the hybrid query: lexical substring gate on title,
// author, and content, then similarity ranking against queryVec. An empty
// q passes every row through the gate. No matches yields an empty slice,
// not an error.
func (s *Store) SearchHybrid(ctx context.Context, q string, queryVec []float32, limit int) ([]catalog.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	pattern := likePattern(q)
	rows, err := s.db.QueryContext(ctx, hybridSearchSQL,
		EncodeEmbedding(queryVec), pattern, pattern, pattern, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeQuery, fmt.Errorf("hybrid search failed: %w", err))
	}
	defer rows.Close()

	results := []catalog.SearchResult{}
	for rows.Next() {
		var r catalog.SearchResult
		var pubDate string
		if err := rows.Scan(&r.ID, &r.Title, &r.Author, &r.Category, &pubDate, &r.Content, &r.Similarity); err != nil {
			return nil, errors.Wrap(errors.CodeQuery, fmt.Errorf("failed to scan result: %w", err))
		}
		if r.PublicationDate, err = catalog.ParseDate(pubDate); err != nil {
			return nil, errors.Wrap(errors.CodeQuery, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeQuery, err)
	}
	return results, nil
}

// likePattern wraps q in %...% for substring matching, escaping LIKE
// metacharacters so the gate matches q literally. SQLite LIKE is
// case-insensitive for ASCII, which provides the case folding.
func likePattern(q string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + escaped + "%"
}
