package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
)

// HashEmbedder generates deterministic pseudo-random embeddings.
// The text is hashed with FNV-1a (64-bit) and the hash seeds a PCG
// generator that draws Dimensions uniform values, which are then
// L2-normalized. The same text always yields the same unit vector.
//
// This is a stand-in for a trained embedding model: the contract the rest
// of the system relies on is determinism, fixed dimensionality, and unit
// norm, not semantic quality.
type HashEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// NewHashEmbedder creates a new deterministic hash embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed generates the embedding for a single text.
// The empty string is valid input and produces a valid unit vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	seed := hashSeed(text)
	rng := rand.New(rand.NewPCG(seed, seed))

	vector := make([]float32, Dimensions)
	for i := range vector {
		vector[i] = float32(rng.Float64())
	}

	// Uniform draws in [0,1) make a zero vector vanishingly unlikely, so the
	// normalized result always has unit norm.
	return normalizeVector(vector), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return Dimensions
}

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string {
	return "hash-pcg"
}

// Close releases resources.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// hashSeed maps text to a PRNG seed using FNV-1a over the raw bytes.
func hashSeed(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}
