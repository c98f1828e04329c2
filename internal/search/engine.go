package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/embedding"
	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

const snippetWindow = 40

// Engine serves lexical, semantic, and hybrid search over a Backend, plus
// the suggestions MRU table. Safe for concurrent use.
type Engine struct {
	backend  Backend
	embedder embedding.Engine
	cfg      *config.Store
	metrics  *metrics.Pipeline

	vecCache    *vectorCache
	suggestions *suggestionTable
}

// NewEngine builds an Engine. embedder may be nil; semantic/hybrid queries
// then fail with ErrSearchUnavailable (or fall back to lexical in hybrid
// mode) rather than panicking.
func NewEngine(backend Backend, embedder embedding.Engine, cfg *config.Store, m *metrics.Pipeline) *Engine {
	if m == nil {
		m = metrics.New()
	}
	sc := cfg.Current().Search
	return &Engine{
		backend:     backend,
		embedder:    embedder,
		cfg:         cfg,
		metrics:     m,
		vecCache:    newVectorCache(256),
		suggestions: newSuggestionTable(sc.SuggestionsMaxN),
	}
}

func (e *Engine) clampLimit(limit int) int {
	sc := e.cfg.Current().Search
	if limit <= 0 {
		limit = sc.DefaultLimit
	}
	if sc.HardLimitCap > 0 && limit > sc.HardLimitCap {
		limit = sc.HardLimitCap
	}
	return limit
}

func toStoreFilters(f Filters) store.Filters {
	return store.Filters{From: f.From, To: f.To, AppAllow: f.AppAllow, AppDeny: f.AppDeny, ContentKind: f.ContentKind}
}

// SearchText runs lexical mode: normalization, Store.QueryFTS, rank
// normalization to (0,1] by dividing by the best rank in the result set.
func (e *Engine) SearchText(query string, limit, offset int, f Filters) ([]Result, error) {
	norm := normalizeLexicalQuery(query)
	if norm == "" {
		return nil, ErrInvalidQuery
	}
	limit = e.clampLimit(limit)

	hits, err := e.backend.QueryFTS(norm, limit, offset, toStoreFilters(f))
	if err != nil {
		logging.SearchDebug("lexical query failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	results := e.hitsToResults(hits, f)
	e.suggestions.record(query)
	return results, nil
}

func (e *Engine) hitsToResults(hits []store.FTSHit, f Filters) []Result {
	if len(hits) == 0 {
		return nil
	}
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	rows, err := e.backend.GetByIDs(ids)
	if err != nil {
		logging.SearchDebug("get_by_ids failed: %v", err)
		return nil
	}
	byID := make(map[int64]store.EventRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	best := bestRank(hits)
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		row, ok := byID[h.ID]
		if !ok {
			continue
		}
		score := normalizeRank(h.Rank, best)
		if !passesMinScore(score, f) {
			continue
		}
		out = append(out, Result{
			EventID:      h.ID,
			Content:      row.Content,
			Snippet:      h.Snippet,
			TS:           row.TS,
			Application:  row.Application,
			Score:        score,
			LexicalScore: &score,
		})
	}
	return out
}

func bestRank(hits []store.FTSHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	best := hits[0].Rank
	for _, h := range hits[1:] {
		if absF(h.Rank) > absF(best) {
			best = h.Rank
		}
	}
	return best
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func normalizeRank(rank, best float64) float64 {
	if best == 0 {
		return 1.0
	}
	return rank / best
}

// passesMinScore reports whether score clears f.MinScore. A zero MinScore
// applies no floor, matching the zero-value-means-unfiltered convention the
// rest of Filters follows.
func passesMinScore(score float64, f Filters) bool {
	return f.MinScore <= 0 || score >= f.MinScore
}

func normalizeLexicalQuery(q string) string {
	return strings.TrimSpace(q)
}

// SearchSemantic embeds query with the configured Embedder, queries
// Store.query_vec, and drops results below threshold (default from config
// when threshold < 0).
func (e *Engine) SearchSemantic(ctx context.Context, query string, limit int, threshold float64, f Filters) ([]Result, error) {
	norm := strings.TrimSpace(query)
	if norm == "" {
		return nil, ErrInvalidQuery
	}
	if e.embedder == nil || !e.backend.HasVectorIndex() {
		return nil, fmt.Errorf("%w: semantic search not configured", ErrSearchUnavailable)
	}
	if threshold < 0 {
		threshold = e.cfg.Current().Search.Threshold
	}
	limit = e.clampLimit(limit)

	qvec, err := e.embedQuery(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	hits, err := e.backend.QueryVec(qvec, limit, toStoreFilters(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	var kept []store.VecHit
	for _, h := range hits {
		if h.Cosine >= threshold {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		e.suggestions.record(query)
		return nil, nil
	}

	ids := make([]int64, len(kept))
	scoreByID := make(map[int64]float64, len(kept))
	for i, h := range kept {
		ids[i] = h.ID
		scoreByID[h.ID] = h.Cosine
	}
	rows, err := e.backend.GetByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	rowByID := make(map[int64]store.EventRow, len(rows))
	for _, r := range rows {
		rowByID[r.ID] = r
	}
	// Emit in QueryVec's similarity order; GetByIDs returns rows unordered.
	out := make([]Result, 0, len(kept))
	for _, h := range kept {
		row, ok := rowByID[h.ID]
		if !ok {
			continue
		}
		score := scoreByID[row.ID]
		if !passesMinScore(score, f) {
			continue
		}
		out = append(out, Result{
			EventID:       row.ID,
			Content:       row.Content,
			Snippet:       semanticSnippet(row.Content, norm),
			TS:            row.TS,
			Application:   row.Application,
			Score:         score,
			SemanticScore: &score,
		})
	}
	e.suggestions.record(query)
	return out, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	modelTag := e.embedder.Name()
	if v, ok := e.vecCache.get(modelTag, query); ok {
		return v, nil
	}
	v, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	e.vecCache.set(modelTag, query, v)
	return v, nil
}

// semanticSnippet returns a centred +/-N character window around the first
// literal occurrence of any whitespace-separated query term, or the first
// 2N characters of content if no term matches literally.
func semanticSnippet(content, query string) string {
	terms := strings.Fields(strings.ToLower(query))
	lowerContent := strings.ToLower(content)

	bestIdx := -1
	for _, term := range terms {
		if idx := strings.Index(lowerContent, term); idx >= 0 {
			if bestIdx == -1 || idx < bestIdx {
				bestIdx = idx
			}
		}
	}
	if bestIdx == -1 {
		if len(content) <= 2*snippetWindow {
			return content
		}
		return content[:2*snippetWindow] + "..."
	}

	start := bestIdx - snippetWindow
	if start < 0 {
		start = 0
	}
	end := bestIdx + snippetWindow
	if end > len(content) {
		end = len(content)
	}
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(content) {
		suffix = "..."
	}
	return prefix + content[start:end] + suffix
}

// Suggestions returns the most-used past queries whose normalized form
// starts with prefix.
func (e *Engine) Suggestions(prefix string, limit int) []string {
	if limit <= 0 {
		limit = e.cfg.Current().Search.SuggestionsMaxN
	}
	return e.suggestions.suggestions(prefix, limit)
}
