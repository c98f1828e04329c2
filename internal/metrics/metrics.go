// Package metrics holds the pipeline's lock-free atomic counters, shared
// across capture, mask, persist and search without a central lock.
package metrics

import "sync/atomic"

// Pipeline is the process-global counter set. All fields are accessed only
// through atomic operations; the struct itself carries no mutex, matching
// the concurrency model's "metrics counters are lock-free atomics".
type Pipeline struct {
	EventsCaptured  atomic.Int64
	EventsProcessed atomic.Int64
	EventsStored    atomic.Int64
	EventsDropped   atomic.Int64 // hook→capture drop-oldest count
	ChannelOverflow atomic.Int64
	StoreRetries    atomic.Int64
	StoreFailures   atomic.Int64
	PatternErrors   atomic.Int64
	LastEventTSMS   atomic.Int64
	LastErrorMsg    atomic.Value // string
}

// New returns a zeroed counter set.
func New() *Pipeline {
	p := &Pipeline{}
	p.LastErrorMsg.Store("")
	return p
}

// Snapshot is an immutable, point-in-time read of Pipeline for status
// reporting (get_status / get_stats).
type Snapshot struct {
	EventsCaptured  int64
	EventsProcessed int64
	EventsStored    int64
	EventsDropped   int64
	ChannelOverflow int64
	StoreRetries    int64
	StoreFailures   int64
	PatternErrors   int64
	LastEventTSMS   int64
	LastError       string
}

// Snapshot reads every counter without locking.
func (p *Pipeline) Snapshot() Snapshot {
	lastErr, _ := p.LastErrorMsg.Load().(string)
	return Snapshot{
		EventsCaptured:  p.EventsCaptured.Load(),
		EventsProcessed: p.EventsProcessed.Load(),
		EventsStored:    p.EventsStored.Load(),
		EventsDropped:   p.EventsDropped.Load(),
		ChannelOverflow: p.ChannelOverflow.Load(),
		StoreRetries:    p.StoreRetries.Load(),
		StoreFailures:   p.StoreFailures.Load(),
		PatternErrors:   p.PatternErrors.Load(),
		LastEventTSMS:   p.LastEventTSMS.Load(),
		LastError:       lastErr,
	}
}

// RecordError stores the last error message surfaced by any stage.
func (p *Pipeline) RecordError(msg string) {
	p.LastErrorMsg.Store(msg)
}
