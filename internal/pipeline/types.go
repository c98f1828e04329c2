// Package pipeline wires capture, mask, store, and search into the single
// running process the external interface (spec §6) addresses: one
// Controller owns the stage goroutines, the hot-swappable config, and every
// command the CLI or an embedding host calls.
package pipeline

import (
	"time"

	"github.com/Sudo-psc/keyai-desktop/internal/search"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

// MaskedEvent is the value handed from the Mask stage to the Persist stage:
// a CapturedEvent's text after redaction, still in memory, not yet durable.
// Owned by Mask until it is handed off; owned by Persist from then on.
type MaskedEvent struct {
	TS          time.Time
	Content     string
	Application string
	WindowTitle string
	Tags        []string
}

// Status answers get_status.
type Status struct {
	Running        bool
	EventsCaptured int64
	EventsProcessed int64
	EventsStored   int64
	LastEventTS    time.Time
	LastError      string
}

// SearchResponse wraps a result page with the timing and count fields the
// external interface attaches to every search command.
type SearchResponse struct {
	Results      []search.Result
	TotalCount   int
	SearchTimeMS int64
}

// HealthState is the three-valued health the external interface reports.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// CheckResult is one named component's health verdict.
type CheckResult struct {
	Name    string
	OK      bool
	Detail  string
}

// Health answers get_health: an overall state plus the per-component checks
// that produced it.
type Health struct {
	State  HealthState
	Checks []CheckResult
}

// StatsResponse answers get_stats: the store's own Stats plus the
// dead-letter count already folded in by store.Stats.
type StatsResponse struct {
	store.Stats
}

// ExportOptions configures export_data.
type ExportOptions struct {
	From, To          time.Time
	DestPath          string
	IncludeEmbeddings bool // also write each event's stored vector and model tag, when one exists
}

// ExportResult answers export_data: the event count plus a run id
// correlating this export with its log lines.
type ExportResult struct {
	Count int
	RunID string
}

// BackupOptions configures backup_database.
type BackupOptions struct {
	DestPath string
}

// BackupResult answers backup_database: a run id correlating this backup
// with its log lines.
type BackupResult struct {
	RunID string
}
