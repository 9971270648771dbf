package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexline/magsearch/internal/embed"
	"github.com/hexline/magsearch/internal/store"
)

// writeCSV writes a temp CSV file and returns its path.
func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestPipeline builds a pipeline over an in-memory store without locking.
func newTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := embed.NewHashEmbedder()
	t.Cleanup(func() { _ = e.Close() })

	return New(s, e, "", nil), s
}

const infoCSV = `id,title,author,publication_date,category
1,Rocket News,A. Writer,2023-01-15,Science
2,Garden Monthly,B. Green,"July 3, 2022",Lifestyle
`

const contentCSV = `id,magazine_id,content
1,1,space travel and orbital mechanics
2,2,pruning roses in early summer
`

func TestPipeline_Run(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	stats, err := p.Run(ctx,
		writeCSV(t, "info.csv", infoCSV),
		writeCSV(t, "content.csv", contentCSV))
	require.NoError(t, err)
	assert.Equal(t, Stats{Magazines: 2, Contents: 2}, stats)

	// Dates were parsed from both formats.
	m, err := s.GetMagazine(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "2022-07-03", m.PublicationDate.String())
	assert.Equal(t, "Garden Monthly", m.Title)
}

func TestPipeline_RoundTripSearch(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.Run(ctx,
		writeCSV(t, "info.csv", infoCSV),
		writeCSV(t, "content.csv", contentCSV))
	require.NoError(t, err)

	// Searching for a substring of the ingested content finds the row.
	e := embed.NewHashEmbedder()
	defer func() { _ = e.Close() }()
	queryVec, err := e.Embed(ctx, "orbital")
	require.NoError(t, err)

	results, err := s.SearchHybrid(ctx, "orbital", queryVec, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
	assert.GreaterOrEqual(t, results[0].Similarity, -1.0)
	assert.LessOrEqual(t, results[0].Similarity, 1.0)
}

func TestPipeline_ReingestOverwrites(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	infoPath := writeCSV(t, "info.csv", infoCSV)
	contentPath := writeCSV(t, "content.csv", contentCSV)

	_, err := p.Run(ctx, infoPath, contentPath)
	require.NoError(t, err)

	updated := writeCSV(t, "info2.csv", `id,title,author,publication_date,category
1,Rocket News Revised,A. Writer,2023-02-01,Science
2,Garden Monthly,B. Green,2022-07-03,Lifestyle
`)
	_, err = p.Run(ctx, updated, contentPath)
	require.NoError(t, err)

	// Same ids, so still two rows, with the latest values.
	magazines, contents, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, magazines)
	assert.Equal(t, 2, contents)

	m, err := s.GetMagazine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Rocket News Revised", m.Title)
}

func TestPipeline_MalformedIDAborts(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	bad := writeCSV(t, "info.csv", `id,title,author,publication_date,category
1,Good Row,A. Writer,2023-01-15,Science
not-a-number,Bad Row,B. Writer,2023-01-16,Science
`)
	_, err := p.Run(ctx, bad, writeCSV(t, "content.csv", contentCSV))
	require.Error(t, err)

	// Nothing was committed, including the valid first row.
	magazines, contents, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, magazines)
	assert.Equal(t, 0, contents)
}

func TestPipeline_UnparseableDateAborts(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	bad := writeCSV(t, "info.csv", `id,title,author,publication_date,category
1,Bad Date,A. Writer,not a date at all,Science
`)
	_, err := p.Run(ctx, bad, writeCSV(t, "content.csv", contentCSV))
	require.Error(t, err)

	magazines, _, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, magazines)
}

func TestPipeline_MissingColumnAborts(t *testing.T) {
	p, _ := newTestPipeline(t)

	bad := writeCSV(t, "info.csv", `id,title,author,category
1,No Date Column,A. Writer,Science
`)
	_, err := p.Run(context.Background(), bad, writeCSV(t, "content.csv", contentCSV))
	assert.Error(t, err)
}

func TestPipeline_LockExcludesConcurrentRuns(t *testing.T) {
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := embed.NewHashEmbedder()
	t.Cleanup(func() { _ = e.Close() })

	lockPath := filepath.Join(t.TempDir(), "ingest.lock")
	p := New(s, e, lockPath, nil)

	// Hold the lock as a competing run would.
	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, err = p.Run(context.Background(),
		writeCSV(t, "info.csv", infoCSV),
		writeCSV(t, "content.csv", contentCSV))
	assert.ErrorIs(t, err, ErrLocked)

	// Releasing the lock lets the run proceed.
	require.NoError(t, held.Unlock())
	_, err = p.Run(context.Background(),
		writeCSV(t, "info.csv", infoCSV),
		writeCSV(t, "content.csv", contentCSV))
	assert.NoError(t, err)
}
