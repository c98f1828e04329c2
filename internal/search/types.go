// Package search implements the three query modes — lexical, semantic,
// hybrid — over internal/store, with deterministic ordering and stable
// tie-breaking, plus a bounded query-vector cache and an in-memory MRU
// suggestions table.
package search

import "time"

// Result is one ranked search hit returned to the caller.
type Result struct {
	EventID        int64
	Content        string
	Snippet        string
	TS             time.Time
	Application    string
	Score          float64
	LexicalScore   *float64
	SemanticScore  *float64
	FellBackTag    string // set on a hybrid query that degraded to a single mode
}

// Filters mirrors store.Filters plus MinScore, which the Search Engine
// applies post-query since scores are only known after rank normalization
// (lexical) or fusion (hybrid).
type Filters struct {
	From, To    time.Time
	AppAllow    []string
	AppDeny     []string
	ContentKind string
	MinScore    float64
}

// Mode identifies a retrieval channel. Result does not carry it, and the
// RRF fusion does not read it.
type Mode int

const (
	ModeLexical Mode = iota
	ModeSemantic
	ModeHybrid
)
