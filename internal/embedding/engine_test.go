package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineHashProvider(t *testing.T) {
	engine, err := NewEngine(Config{Provider: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "hash", engine.Name())
	assert.Equal(t, 768, engine.Dimensions())
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	_, err := NewEngine(Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
}

func TestNewEngineGenAIRequiresAPIKey(t *testing.T) {
	_, err := NewEngine(Config{Provider: "genai"})
	require.Error(t, err)
}

func TestHashEngineIsDeterministic(t *testing.T) {
	engine := NewHashEngine(64)
	ctx := context.Background()

	a, err := engine.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	b, err := engine.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := engine.Embed(ctx, "something entirely different")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashEngineBatchMatchesIndividual(t *testing.T) {
	engine := NewHashEngine(32)
	ctx := context.Background()
	texts := []string{"alpha", "beta", "gamma"}

	batch, err := engine.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := engine.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestCosineSimilarityIdenticalVectorIsOne(t *testing.T) {
	v := []float32{1, 0, 0}
	sim, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarityDimensionMismatchErrors(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
}

func TestFindTopKOrdersBySimilarityDescending(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},
		{1, 0},
		{0.7071, 0.7071},
	}

	results, err := FindTopK(query, corpus, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 2, results[1].Index)
}
