// Package catalog defines the domain model for the magazine catalog:
// magazine metadata, body content with its embedding, and search results.
package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateFormat is the wire and storage format for publication dates.
const DateFormat = "2006-01-02"

// Date is a calendar date without a time component.
// It marshals to/from "yyyy-mm-dd" in JSON and is stored as TEXT in SQLite.
type Date struct {
	time.Time
}

// NewDate creates a Date from a time.Time, truncating the time component.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in storage format ("yyyy-mm-dd").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String returns the date in storage format.
func (d Date) String() string {
	return d.Format(DateFormat)
}

// MarshalJSON renders the date as a "yyyy-mm-dd" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

// UnmarshalJSON parses a "yyyy-mm-dd" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Magazine is the catalog metadata for a single magazine.
// IDs are externally supplied by the source data and act as upsert keys.
type Magazine struct {
	ID              int64
	Title           string
	Author          string
	PublicationDate Date
	Category        string
}

// MagazineContent is the body text of a magazine plus its embedding vector.
// MagazineID references Magazine.ID; referential integrity is assumed from
// the source data, not enforced beyond the schema-level foreign key.
type MagazineContent struct {
	ID         int64
	MagazineID int64
	Content    string
	Embedding  []float32
}

// SearchResult is one row of a hybrid search response. Similarity is cosine
// similarity against the query embedding, held at full precision internally;
// callers round it for display with RoundSimilarity.
type SearchResult struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Category        string  `json:"category"`
	PublicationDate Date    `json:"publication_date"`
	Content         string  `json:"content"`
	Similarity      float64 `json:"similarity"`
}

// RoundSimilarity rounds a similarity score to 4 decimal places for output.
// Ranking always happens before rounding so near ties keep their order.
func RoundSimilarity(s float64) float64 {
	return math.Round(s*10000) / 10000
}
