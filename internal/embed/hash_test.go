package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder()
	defer func() { _ = e.Close() }()

	// Given: the same text embedded twice
	first, err := e.Embed(context.Background(), "space travel")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "space travel")
	require.NoError(t, err)

	// Then: the vectors are identical
	assert.Equal(t, first, second)
}

func TestHashEmbedder_DimensionsAndNorm(t *testing.T) {
	e := NewHashEmbedder()
	defer func() { _ = e.Close() }()

	texts := []string{"rocket news", "a", "", "long text with many words repeated many times"}
	for _, text := range texts {
		vec, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Len(t, vec, Dimensions)

		var sumSquares float64
		for _, v := range vec {
			sumSquares += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5, "text %q should embed to a unit vector", text)
	}
}

func TestHashEmbedder_DistinctTextsDiffer(t *testing.T) {
	e := NewHashEmbedder()
	defer func() { _ = e.Close() }()

	a, err := e.Embed(context.Background(), "rockets")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "gardening")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashEmbedder_EmptyString(t *testing.T) {
	e := NewHashEmbedder()
	defer func() { _ = e.Close() }()

	// The empty string is valid input and must still produce a unit vector.
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, Dimensions)

	again, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, vec, again)
}

func TestHashEmbedder_EmbedBatch(t *testing.T) {
	e := NewHashEmbedder()
	defer func() { _ = e.Close() }()

	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	single, err := e.Embed(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, single, vecs[0])

	empty, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHashEmbedder_Closed(t *testing.T) {
	e := NewHashEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "anything")
	assert.Error(t, err)
}
