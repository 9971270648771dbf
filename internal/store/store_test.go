package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexline/magsearch/internal/catalog"
	"github.com/hexline/magsearch/internal/embed"
)

// newTestStore opens an in-memory store.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testDate builds a catalog.Date for fixtures.
func testDate(year int, month time.Month, day int) catalog.Date {
	return catalog.NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// unitVec builds an embedding with the given leading components; the rest
// of the dimensions are zero.
func unitVec(vals ...float64) []float32 {
	v := make([]float32, embed.Dimensions)
	for i, val := range vals {
		v[i] = float32(val)
	}
	return v
}

func TestStore_UpsertMagazine_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given: the same id upserted twice with different field values
	first := &catalog.Magazine{
		ID: 1, Title: "Rocket News", Author: "A. Writer",
		PublicationDate: testDate(2023, time.January, 1), Category: "Science",
	}
	require.NoError(t, s.UpsertMagazine(ctx, first))

	second := &catalog.Magazine{
		ID: 1, Title: "Rocket Weekly", Author: "B. Editor",
		PublicationDate: testDate(2024, time.June, 15), Category: "Space",
	}
	require.NoError(t, s.UpsertMagazine(ctx, second))

	// Then: exactly one row exists, holding the latest values
	magazines, _, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, magazines)

	got, err := s.GetMagazine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Rocket Weekly", got.Title)
	assert.Equal(t, "B. Editor", got.Author)
	assert.Equal(t, "2024-06-15", got.PublicationDate.String())
}

func TestStore_UpsertContent_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := &catalog.MagazineContent{
		ID: 10, MagazineID: 1, Content: "first version", Embedding: unitVec(1),
	}
	require.NoError(t, s.UpsertContent(ctx, content))

	content.Content = "second version"
	require.NoError(t, s.UpsertContent(ctx, content))

	_, contents, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, contents)
}

func TestStore_UpsertContent_RejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)

	err := s.UpsertContent(context.Background(), &catalog.MagazineContent{
		ID: 1, MagazineID: 1, Content: "short vector", Embedding: []float32{1, 2, 3},
	})
	assert.Error(t, err)
}

func TestStore_TransactionRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.UpsertMagazine(ctx, &catalog.Magazine{
		ID: 1, Title: "Uncommitted", PublicationDate: testDate(2023, time.March, 3),
	}))
	require.NoError(t, tx.Rollback())

	// Nothing was committed.
	magazines, _, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, magazines)
}

func TestVector_EncodeDecode(t *testing.T) {
	vec := []float32{0.5, -1.25, 3}
	decoded, err := DecodeEmbedding(EncodeEmbedding(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	// Blob lengths that are not a multiple of 4 are rejected.
	_, err = DecodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)

	// Empty round-trips to nil.
	decoded, err = DecodeEmbedding(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
