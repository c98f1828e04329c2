package search

import (
	"context"
	"fmt"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

// SearchHybrid runs lexical and semantic search in parallel channels
// (conceptually; executed sequentially here since both calls are already
// bounded and cheap relative to network-bound embedding) and fuses them
// with Reciprocal Rank Fusion per spec §4.4. If one mode fails, the other's
// results are returned with FellBackTag set; if both fail, ErrSearchUnavailable
// is returned.
func (e *Engine) SearchHybrid(ctx context.Context, query string, limit int, wt, ws float64, f Filters) ([]Result, error) {
	if normalizeLexicalQuery(query) == "" {
		return nil, ErrInvalidQuery
	}
	wt, ws, err := normalizeWeights(wt, ws)
	if err != nil {
		return nil, err
	}
	limit = e.clampLimit(limit)
	k := e.cfg.Current().Search.RRFConstant

	// Skip a zero-weighted mode entirely rather than querying it and
	// scoring it to zero: this is what makes the reduction law exact
	// (w_s=0 => search_hybrid == search_text, and symmetrically for w_t=0)
	// instead of merely "dominated by".
	var lexResults, semResults []Result
	var lexErr, semErr error
	lexAttempted, semAttempted := wt > 0, ws > 0
	if lexAttempted {
		lexResults, lexErr = e.SearchText(query, limit, 0, f)
	}
	if semAttempted {
		semResults, semErr = e.SearchSemantic(ctx, query, limit, -1, f)
	}

	switch {
	case lexAttempted && semAttempted && lexErr != nil && semErr != nil:
		return nil, fmt.Errorf("%w: lexical: %v; semantic: %v", ErrSearchUnavailable, lexErr, semErr)
	case lexAttempted && semAttempted && lexErr != nil:
		logging.SearchDebug("hybrid query degraded to semantic-only: %v", lexErr)
		tagged := append([]Result(nil), semResults...)
		for i := range tagged {
			tagged[i].FellBackTag = "lexical_unavailable"
		}
		return tagged, nil
	case lexAttempted && semAttempted && semErr != nil:
		logging.SearchDebug("hybrid query degraded to lexical-only: %v", semErr)
		tagged := append([]Result(nil), lexResults...)
		for i := range tagged {
			tagged[i].FellBackTag = "semantic_unavailable"
		}
		return tagged, nil
	case lexAttempted && lexErr != nil:
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, lexErr)
	case semAttempted && semErr != nil:
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, semErr)
	}

	return e.fuse(lexResults, semResults, wt, ws, k, limit, f), nil
}

func (e *Engine) fuse(lexResults, semResults []Result, wt, ws, k float64, limit int, f Filters) []Result {
	lexIDs := make([]int64, len(lexResults))
	byID := make(map[int64]Result, len(lexResults)+len(semResults))
	for i, r := range lexResults {
		lexIDs[i] = r.EventID
		byID[r.EventID] = r
	}
	semIDs := make([]int64, len(semResults))
	for i, r := range semResults {
		semIDs[i] = r.EventID
		if existing, ok := byID[r.EventID]; ok {
			existing.SemanticScore = r.SemanticScore
			existing.Snippet = preferSnippet(existing.Snippet, r.Snippet)
			byID[r.EventID] = existing
		} else {
			byID[r.EventID] = r
		}
	}

	inputs := mergeRanks(lexIDs, semIDs)
	scores := reciprocalRankFusion(inputs, wt, ws, k)

	ids := make([]int64, len(inputs))
	ts := make(map[int64]int64, len(inputs))
	for i, in := range inputs {
		ids[i] = in.id
		ts[in.id] = byID[in.id].TS.UnixMilli()
	}
	ordered := orderByScore(ids, scores, ts)

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]Result, 0, len(ordered))
	for _, id := range ordered {
		r := byID[id]
		r.Score = scores[id]
		if !passesMinScore(r.Score, f) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func preferSnippet(lexSnippet, semSnippet string) string {
	if lexSnippet != "" {
		return lexSnippet
	}
	return semSnippet
}
