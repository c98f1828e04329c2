package embedding

import (
	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent embedding work with a weighted semaphore instead
// of a fixed-size worker goroutine pool, so a burst of persisted events
// degrades to "skip this one, stay eventually consistent" rather than
// queuing without bound. Callers close over their own Embed/store calls in
// the fn passed to TrySubmit; Pool only tracks the engine it's bounding so
// callers can name it (Name) without holding a second reference.
type Pool struct {
	eng Engine
	sem *semaphore.Weighted
}

// NewPool builds a Pool allowing up to workers concurrent submissions
// against eng. workers <= 0 defaults to 4.
func NewPool(eng Engine, workers int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	return &Pool{eng: eng, sem: semaphore.NewWeighted(int64(workers))}
}

// Name returns the bounded engine's identifier, e.g. "ollama:embeddinggemma".
func (p *Pool) Name() string { return p.eng.Name() }

// TrySubmit runs fn in a new goroutine if a slot is free, releasing it when
// fn returns. Returns false without running fn if the pool is saturated.
func (p *Pool) TrySubmit(fn func()) bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	go func() {
		defer p.sem.Release(1)
		fn()
	}()
	return true
}
