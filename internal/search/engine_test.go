package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/embedding"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

// fakeBackend is an in-memory double for Backend, satisfying the Store
// polymorphism design note (spec §9): tests drive search logic without a
// real sqlite database.
type fakeBackend struct {
	rows      map[int64]store.EventRow
	ftsHits   map[string][]store.FTSHit
	vecHits   []store.VecHit
	hasVector bool
	dim       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rows:    make(map[int64]store.EventRow),
		ftsHits: make(map[string][]store.FTSHit),
	}
}

func (f *fakeBackend) addRow(id int64, content, app string, ts time.Time) {
	f.rows[id] = store.EventRow{ID: id, Content: content, Application: app, TS: ts, CreatedAt: ts}
}

func (f *fakeBackend) QueryFTS(query string, limit, offset int, filt store.Filters) ([]store.FTSHit, error) {
	hits := f.ftsHits[query]
	if offset >= len(hits) {
		return nil, nil
	}
	hits = hits[offset:]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeBackend) QueryVec(qvec []float32, limit int, filt store.Filters) ([]store.VecHit, error) {
	hits := f.vecHits
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeBackend) GetByIDs(ids []int64) ([]store.EventRow, error) {
	out := make([]store.EventRow, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) HasVectorIndex() bool { return f.hasVector }
func (f *fakeBackend) EmbeddingDim() int    { return f.dim }

func newTestEngine(t *testing.T, backend *fakeBackend, embedder embedding.Engine) *Engine {
	t.Helper()
	cfg := config.NewStore(config.DefaultConfig())
	return NewEngine(backend, embedder, cfg, metrics.New())
}

func TestSearchTextRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(), nil)
	_, err := e.SearchText("   ", 10, 0, Filters{})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSearchTextNormalizesRankToUnitInterval(t *testing.T) {
	backend := newFakeBackend()
	backend.addRow(1, "login credentials page", "browser", time.Now())
	backend.addRow(2, "other login info", "browser", time.Now())
	backend.ftsHits["login"] = []store.FTSHit{
		{ID: 1, Rank: -10, Snippet: "login credentials page"},
		{ID: 2, Rank: -4, Snippet: "other login info"},
	}
	e := newTestEngine(t, backend, nil)

	results, err := e.SearchText("login", 10, 0, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.4, results[1].Score, 1e-9)
}

func TestSearchSemanticDiscardsBelowThreshold(t *testing.T) {
	backend := newFakeBackend()
	backend.hasVector = true
	backend.dim = 4
	backend.addRow(1, "strong match", "notes", time.Now())
	backend.addRow(2, "weak match", "notes", time.Now())
	backend.vecHits = []store.VecHit{{ID: 1, Cosine: 0.9}, {ID: 2, Cosine: 0.2}}

	e := newTestEngine(t, backend, embedding.NewHashEngine(4))
	results, err := e.SearchSemantic(context.Background(), "query text", 10, 0.5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].EventID)
}

func TestSearchSemanticWithoutVectorIndexIsUnavailable(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(), embedding.NewHashEngine(4))
	_, err := e.SearchSemantic(context.Background(), "q", 10, 0.5, Filters{})
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestSearchHybridRejectsZeroWeights(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(), embedding.NewHashEngine(4))
	_, err := e.SearchHybrid(context.Background(), "login", 10, 0, 0, Filters{})
	assert.ErrorIs(t, err, ErrWeightsZero)
}

func TestSearchHybridReducesToLexicalWhenSemanticWeightZero(t *testing.T) {
	backend := newFakeBackend()
	backend.addRow(1, "login credentials page", "browser", time.Now())
	backend.addRow(2, "other login info", "browser", time.Now())
	backend.ftsHits["login credentials"] = []store.FTSHit{
		{ID: 1, Rank: -10, Snippet: "a"},
		{ID: 2, Rank: -4, Snippet: "b"},
	}
	e := newTestEngine(t, backend, nil)

	lexOnly, err := e.SearchText("login credentials", 10, 0, Filters{})
	require.NoError(t, err)

	hybrid, err := e.SearchHybrid(context.Background(), "login credentials", 10, 1.0, 0.0, Filters{})
	require.NoError(t, err)

	require.Len(t, hybrid, len(lexOnly))
	for i := range lexOnly {
		assert.Equal(t, lexOnly[i].EventID, hybrid[i].EventID)
		assert.Equal(t, lexOnly[i].Content, hybrid[i].Content)
	}
}

func TestSearchHybridReducesToSemanticWhenTextWeightZero(t *testing.T) {
	backend := newFakeBackend()
	backend.hasVector = true
	backend.dim = 4
	backend.addRow(1, "alpha", "notes", time.Now())
	backend.addRow(2, "beta", "notes", time.Now())
	backend.vecHits = []store.VecHit{{ID: 1, Cosine: 0.9}, {ID: 2, Cosine: 0.7}}
	e := newTestEngine(t, backend, embedding.NewHashEngine(4))

	semOnly, err := e.SearchSemantic(context.Background(), "query", 10, 0.5, Filters{})
	require.NoError(t, err)

	hybrid, err := e.SearchHybrid(context.Background(), "query", 10, 0.0, 1.0, Filters{})
	require.NoError(t, err)

	require.Len(t, hybrid, len(semOnly))
	for i := range semOnly {
		assert.Equal(t, semOnly[i].EventID, hybrid[i].EventID)
	}
}

func TestHybridOrderingScenario(t *testing.T) {
	// Three events: A "email login page", B "authentication credentials",
	// C "breakfast recipe". Query "login credentials" with weights
	// (0.5, 0.5): A and B rank before C.
	backend := newFakeBackend()
	now := time.Now()
	backend.addRow(1, "email login page", "browser", now)
	backend.addRow(2, "authentication credentials", "browser", now)
	backend.addRow(3, "breakfast recipe", "notes", now)
	backend.hasVector = true
	backend.dim = 4
	backend.ftsHits["login credentials"] = []store.FTSHit{
		{ID: 1, Rank: -8, Snippet: "email login page"},
		{ID: 2, Rank: -6, Snippet: "authentication credentials"},
	}
	backend.vecHits = []store.VecHit{
		{ID: 2, Cosine: 0.8},
		{ID: 1, Cosine: 0.6},
	}
	e := newTestEngine(t, backend, embedding.NewHashEngine(4))

	results, err := e.SearchHybrid(context.Background(), "login credentials", 10, 0.5, 0.5, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	ids := []int64{results[0].EventID, results[1].EventID}
	assert.ElementsMatch(t, []int64{1, 2}, ids)
	assert.NotContains(t, ids, int64(3))
}

func TestSearchHybridRankingIsStableAcrossRuns(t *testing.T) {
	backend := newFakeBackend()
	now := time.Now()
	backend.addRow(1, "email login page", "browser", now)
	backend.addRow(2, "authentication credentials", "browser", now)
	backend.hasVector = true
	backend.dim = 4
	backend.ftsHits["login credentials"] = []store.FTSHit{
		{ID: 1, Rank: -8, Snippet: "a"},
		{ID: 2, Rank: -6, Snippet: "b"},
	}
	backend.vecHits = []store.VecHit{{ID: 2, Cosine: 0.8}, {ID: 1, Cosine: 0.6}}
	e := newTestEngine(t, backend, embedding.NewHashEngine(4))

	first, err := e.SearchHybrid(context.Background(), "login credentials", 10, 0.5, 0.5, Filters{})
	require.NoError(t, err)
	second, err := e.SearchHybrid(context.Background(), "login credentials", 10, 0.5, 0.5, Filters{})
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].EventID, second[i].EventID)
	}
}

func TestSuggestionMRUScenario(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(), nil)
	e.suggestions.record("alpha")
	e.suggestions.record("beta")
	e.suggestions.record("alpha")
	e.suggestions.record("gamma")

	got := e.Suggestions("", 10)
	assert.Equal(t, []string{"alpha", "gamma", "beta"}, got)
}

func TestSuggestionsFiltersByPrefix(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(), nil)
	e.suggestions.record("apple pie")
	e.suggestions.record("banana bread")

	got := e.Suggestions("app", 10)
	assert.Equal(t, []string{"apple pie"}, got)
}

func TestSearchTextMinScoreDropsLowRankedResults(t *testing.T) {
	backend := newFakeBackend()
	backend.addRow(1, "login credentials page", "browser", time.Now())
	backend.addRow(2, "other login info", "browser", time.Now())
	backend.ftsHits["login"] = []store.FTSHit{
		{ID: 1, Rank: -10, Snippet: "login credentials page"},
		{ID: 2, Rank: -4, Snippet: "other login info"},
	}
	e := newTestEngine(t, backend, nil)

	results, err := e.SearchText("login", 10, 0, Filters{MinScore: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].EventID)
}

func TestOffsetBeyondCountReturnsEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.ftsHits["query"] = []store.FTSHit{{ID: 1, Rank: -1, Snippet: "x"}}
	e := newTestEngine(t, backend, nil)

	results, err := e.SearchText("query", 10, 50, Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
