package pipeline

import (
	"context"
	"time"

	"github.com/Sudo-psc/keyai-desktop/internal/search"
)

// SearchText answers search_text, timing the call per the external
// interface's search_time_ms field.
func (c *Controller) SearchText(query string, limit, offset int, f search.Filters) (SearchResponse, error) {
	start := time.Now()
	results, err := c.searchEng.SearchText(query, limit, offset, f)
	if err != nil {
		return SearchResponse{}, wrapClassified(err)
	}
	return SearchResponse{Results: results, TotalCount: len(results), SearchTimeMS: time.Since(start).Milliseconds()}, nil
}

// SearchSemantic answers search_semantic.
func (c *Controller) SearchSemantic(ctx context.Context, query string, limit int, threshold float64, f search.Filters) (SearchResponse, error) {
	start := time.Now()
	results, err := c.searchEng.SearchSemantic(ctx, query, limit, threshold, f)
	if err != nil {
		return SearchResponse{}, wrapClassified(err)
	}
	return SearchResponse{Results: results, TotalCount: len(results), SearchTimeMS: time.Since(start).Milliseconds()}, nil
}

// SearchHybrid answers search_hybrid. wt/ws <= 0 (both) fall back to the
// configured default weights rather than reaching SearchHybrid's own
// reject-both-zero validation, so an un-parameterized call behaves like the
// external interface's documented default.
func (c *Controller) SearchHybrid(ctx context.Context, query string, limit int, wt, ws float64, f search.Filters) (SearchResponse, error) {
	if wt <= 0 && ws <= 0 {
		sc := c.cfg.Current().Search
		wt, ws = sc.TextWeight, sc.SemanticWeight
	}
	start := time.Now()
	results, err := c.searchEng.SearchHybrid(ctx, query, limit, wt, ws, f)
	if err != nil {
		return SearchResponse{}, wrapClassified(err)
	}
	return SearchResponse{Results: results, TotalCount: len(results), SearchTimeMS: time.Since(start).Milliseconds()}, nil
}

// GetSearchSuggestions answers get_search_suggestions.
func (c *Controller) GetSearchSuggestions(partialQuery string, limit int) []string {
	return c.searchEng.Suggestions(partialQuery, limit)
}
