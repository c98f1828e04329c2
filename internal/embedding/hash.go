package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEngine is a deterministic, dependency-free Engine implementation used
// as a test double and as an offline fallback (config.Provider == "hash").
// It derives a fixed-size unit vector from repeated FNV-1a hashing of the
// whole input text, so identical text always yields identical vectors.
// Any difference in the text, however small, yields an unrelated vector:
// the similarity it reports carries no meaning beyond exact equality, which
// is enough to exercise ranking code without a real model.
type HashEngine struct {
	dims int
}

// NewHashEngine returns a HashEngine producing vectors of the given width.
func NewHashEngine(dims int) *HashEngine {
	if dims <= 0 {
		dims = 768
	}
	return &HashEngine{dims: dims}
}

// Embed deterministically derives a unit vector from text.
func (e *HashEngine) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	h := fnv.New64a()
	seed := []byte(text)

	for i := 0; i < e.dims; i++ {
		h.Reset()
		h.Write(seed)
		h.Write([]byte{byte(i), byte(i >> 8)})
		sum := h.Sum64()
		// Map the hash into [-1, 1].
		vec[i] = float32(int64(sum)) / float32(math.MaxInt64)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (e *HashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the configured vector width.
func (e *HashEngine) Dimensions() int { return e.dims }

// Name identifies the engine as "hash".
func (e *HashEngine) Name() string { return "hash" }

// HealthCheck always succeeds; there is no external dependency to probe.
func (e *HashEngine) HealthCheck(_ context.Context) error { return nil }
