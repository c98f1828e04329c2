package search

import (
	"strings"
	"sync"
	"time"
)

// suggestionEntry tracks one normalized past query's recency and frequency.
type suggestionEntry struct {
	query    string
	lastUsed time.Time
	count    int64
}

// suggestionTable is the bounded in-memory MRU table named in spec §4.4
// "Suggestions" and §9 "Graph cycles" (mediates search-feeds-search without
// a reference cycle).
type suggestionTable struct {
	mu      sync.Mutex
	entries map[string]*suggestionEntry
	maxSize int
}

func newSuggestionTable(maxSize int) *suggestionTable {
	if maxSize <= 0 {
		maxSize = 200
	}
	return &suggestionTable{entries: make(map[string]*suggestionEntry), maxSize: maxSize}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// record updates the MRU table for a normalized query, touching recency and
// bumping frequency. Called after every successful search.
func (t *suggestionTable) record(query string) {
	norm := normalizeQuery(query)
	if norm == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[norm]; ok {
		e.lastUsed = time.Now()
		e.count++
		return
	}
	if len(t.entries) >= t.maxSize {
		t.evictLeastRecentlyUsed()
	}
	t.entries[norm] = &suggestionEntry{query: norm, lastUsed: time.Now(), count: 1}
}

func (t *suggestionTable) evictLeastRecentlyUsed() {
	var oldestKey string
	var oldestTime time.Time
	for k, e := range t.entries {
		if oldestKey == "" || e.lastUsed.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(t.entries, oldestKey)
	}
}

// suggestions returns up to limit normalized past queries whose prefix
// matches, ordered by frequency (most-asked first), tie-broken by recency.
func (t *suggestionTable) suggestions(prefix string, limit int) []string {
	norm := normalizeQuery(prefix)
	t.mu.Lock()
	defer t.mu.Unlock()

	matches := make([]*suggestionEntry, 0, len(t.entries))
	for _, e := range t.entries {
		if strings.HasPrefix(e.query, norm) {
			matches = append(matches, e)
		}
	}

	// Insertion sort: frequency descending, recency descending as tiebreak.
	// The table is bounded (maxSize, default 200), so O(n^2) is fine and
	// keeps the comparison logic obvious.
	for i := 1; i < len(matches); i++ {
		j := i
		for j > 0 && less(matches[j], matches[j-1]) {
			matches[j], matches[j-1] = matches[j-1], matches[j]
			j--
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, e := range matches {
		out[i] = e.query
	}
	return out
}

// less orders by frequency descending, then by most-recent-use descending.
// Per the suggestion-MRU scenario (alpha, beta, alpha, gamma ->
// [alpha, gamma, beta]): a query asked twice outranks one asked once even
// if the once-asked query was issued more recently.
func less(a, b *suggestionEntry) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	return a.lastUsed.After(b.lastUsed)
}
