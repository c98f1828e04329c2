package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

// GetStats answers get_stats.
func (c *Controller) GetStats() (StatsResponse, error) {
	s, err := c.st.Stats()
	if err != nil {
		return StatsResponse{}, wrapClassified(err)
	}
	return StatsResponse{Stats: s}, nil
}

// GetHealth answers get_health: an overall three-valued state derived from
// per-component checks, rather than a single store ping.
func (c *Controller) GetHealth() Health {
	var checks []CheckResult

	stats, err := c.st.Stats()
	storeOK := err == nil
	checks = append(checks, CheckResult{Name: "store", OK: storeOK, Detail: detailOrOK(err)})

	captureOK := c.IsRunning()
	checks = append(checks, CheckResult{Name: "capture", OK: captureOK, Detail: runningDetail(captureOK)})

	vectorOK := c.embedder == nil || c.st.HasVectorIndex()
	checks = append(checks, CheckResult{Name: "vector_index", OK: vectorOK, Detail: vectorDetail(c.embedder != nil, c.st.HasVectorIndex())})

	deadLetterOK := storeOK && stats.DeadLetterCount == 0
	checks = append(checks, CheckResult{Name: "dead_letter", OK: deadLetterOK, Detail: fmt.Sprintf("%d diverted batches", stats.DeadLetterCount)})

	state := HealthHealthy
	switch {
	case !storeOK:
		state = HealthUnhealthy
	case !captureOK || !vectorOK || !deadLetterOK:
		state = HealthDegraded
	}
	return Health{State: state, Checks: checks}
}

func detailOrOK(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

func runningDetail(running bool) string {
	if running {
		return "capture stage running"
	}
	return "capture stage stopped"
}

func vectorDetail(embedderConfigured, hasIndex bool) string {
	if !embedderConfigured {
		return "no embedder configured, semantic search disabled"
	}
	if hasIndex {
		return "ok"
	}
	return "embedder configured but vector index not yet initialized"
}

// OptimizeSearchIndex answers optimize_search_index.
func (c *Controller) OptimizeSearchIndex() error {
	return wrapClassified(c.st.Optimize())
}

// ClearData answers clear_data. confirm must be true; it exists so this
// method's signature itself documents the destructive-action guard the
// external interface requires at the caller boundary.
func (c *Controller) ClearData(confirm bool) error {
	if !confirm {
		return wrapErr(CodeInvalidQuery, fmt.Errorf("clear_data requires confirm=true"))
	}
	return wrapClassified(c.st.Clear())
}

// ExportData answers export_data.
func (c *Controller) ExportData(opts ExportOptions) (ExportResult, error) {
	runID := uuid.NewString()
	logging.Pipeline("export run=%s started, dest=%s", runID, opts.DestPath)

	modelTag := ""
	if opts.IncludeEmbeddings && c.embedPool != nil {
		modelTag = c.embedPool.Name()
	}
	n, err := c.st.ExportJSON(opts.From, opts.To, opts.DestPath, opts.IncludeEmbeddings, modelTag)
	if err != nil {
		return ExportResult{RunID: runID}, wrapClassified(err)
	}

	logging.Pipeline("export run=%s finished, %d events", runID, n)
	return ExportResult{Count: n, RunID: runID}, nil
}

// ImportData restores events previously written by ExportData.
func (c *Controller) ImportData(srcPath string) (int, error) {
	n, err := c.st.ImportJSON(srcPath)
	if err != nil {
		return 0, wrapClassified(err)
	}
	return n, nil
}

// BackupDatabase answers backup_database: a plain file copy of the WAL-
// checkpointed database, written to a temp file and renamed into place so a
// reader never observes a partial backup, matching the write-then-rename
// idiom used throughout internal/store.
func (c *Controller) BackupDatabase(opts BackupOptions) (BackupResult, error) {
	runID := uuid.NewString()
	logging.Pipeline("backup run=%s started, dest=%s", runID, opts.DestPath)
	res := BackupResult{RunID: runID}

	if err := c.st.Optimize(); err != nil {
		logging.Get(logging.CategoryStore).Warn("pre-backup optimize failed, continuing: %v", err)
	}

	src, err := os.Open(c.st.Path())
	if err != nil {
		return res, wrapErr(CodeStoreTransient, err)
	}
	defer src.Close()

	tmp := opts.DestPath + ".tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return res, wrapErr(CodeStoreTransient, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return res, wrapErr(CodeStoreTransient, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return res, wrapErr(CodeStoreTransient, err)
	}
	if err := os.Rename(tmp, opts.DestPath); err != nil {
		return res, wrapErr(CodeStoreTransient, err)
	}

	logging.Pipeline("backup run=%s finished", runID)
	return res, nil
}
