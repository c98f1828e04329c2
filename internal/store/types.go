package store

import "time"

// EventRecord is the input to InsertBatch: a masked event ready to persist.
// Content must already have passed through the mask stage — the store never
// redacts.
type EventRecord struct {
	TS          time.Time
	Content     string
	Application string
	WindowTitle string
	Tags        []string
}

// EventRow is a persisted event as read back from the store.
type EventRow struct {
	ID          int64
	TS          time.Time
	Content     string
	Application string
	WindowTitle string
	CreatedAt   time.Time
	Tags        []string // mask pattern names that fired on this event, e.g. "cpf"
}

// FTSHit is one lexical search result row.
type FTSHit struct {
	ID      int64
	Rank    float64
	Snippet string
}

// VecHit is one semantic search result row.
type VecHit struct {
	ID     int64
	Cosine float64
}

// Filters narrows query_fts/query_vec results. Zero-value Filters applies no
// narrowing.
type Filters struct {
	From, To   time.Time
	AppAllow   []string
	AppDeny    []string
	ContentKind string
}

// Stats summarizes store contents for get_stats/get_health.
type Stats struct {
	EventCount      int64
	VectorCount     int64
	OldestEventTS   time.Time
	NewestEventTS   time.Time
	DatabaseBytes   int64
	DeadLetterCount int64
}
