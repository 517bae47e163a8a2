package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hackr0212/Noir-chroma/memory/embedder/mock"
)

func TestEmbedDeterminism(t *testing.T) {
	ctx := context.Background()
	embedder := mock.New()

	first, err := embedder.Embed(ctx, "What is your name?")
	require.NoError(t, err)
	second, err := embedder.Embed(ctx, "What is your name?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, embedder.Dimensions())
}

func TestEmbedDistinctTextsDiffer(t *testing.T) {
	ctx := context.Background()
	embedder := mock.New()

	a, err := embedder.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := embedder.Embed(ctx, "goodbye")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbedUnitNorm(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewSized(64)

	vec, err := embedder.Embed(ctx, "normalize me")
	require.NoError(t, err)
	require.Len(t, vec, 64)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}
