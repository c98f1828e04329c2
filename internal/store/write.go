package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

const maxInsertRetries = 3

// InsertBatch writes records in one transaction: inserts into events, then
// the matching rows into events_fts, returning assigned ids in the same
// order as records. On transient failure it retries up to maxInsertRetries
// times with exponential backoff, preserving the batch across attempts; on
// exhaustion it diverts the batch to a dead-letter file and returns
// ErrPersistent so the caller can bump its fatal metric without losing the
// data.
func (s *Store) InsertBatch(records []EventRecord) ([]int64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	var (
		ids []int64
		err error
	)
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt <= maxInsertRetries; attempt++ {
		ids, err = s.insertBatchOnce(records)
		if err == nil {
			return ids, nil
		}
		logging.StoreWarn("insert batch attempt %d/%d failed: %v", attempt+1, maxInsertRetries+1, err)
		time.Sleep(backoff)
		backoff *= 2
	}

	if deadErr := s.writeDeadLetter(records); deadErr != nil {
		logging.Get(logging.CategoryStore).Error("dead-letter write failed: %v (original error: %v)", deadErr, err)
	}
	if s.metrics != nil {
		s.metrics.StoreFailures.Add(1)
		s.metrics.RecordError(fmt.Sprintf("batch diverted to dead-letter: %v", err))
	}
	return nil, fmt.Errorf("%w: %v", ErrPersistent, err)
}

func (s *Store) insertBatchOnce(records []EventRecord) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrTransient, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	insertEvent, err := tx.Prepare(`INSERT INTO events (ts, content, application, window_title, tags, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare events: %v", ErrTransient, err)
	}
	defer insertEvent.Close()

	insertFTS, err := tx.Prepare(`INSERT INTO events_fts (rowid, content) VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare events_fts: %v", ErrTransient, err)
	}
	defer insertFTS.Close()

	ids := make([]int64, 0, len(records))
	now := time.Now()
	for _, rec := range records {
		res, err := insertEvent.Exec(rec.TS.UnixMilli(), rec.Content, rec.Application, rec.WindowTitle, strings.Join(rec.Tags, ","), now.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("%w: insert event: %v", ErrTransient, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%w: last insert id: %v", ErrTransient, err)
		}
		if _, err := insertFTS.Exec(id, rec.Content); err != nil {
			return nil, fmt.Errorf("%w: insert fts: %v", ErrTransient, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrTransient, err)
	}
	committed = true
	return ids, nil
}

// InsertVectors writes (event_id, embedding) pairs into events_vec. Called
// asynchronously by the embedding worker once vectors are ready; the store
// is eventually consistent with respect to semantic search by design (spec
// "Vector index").
func (s *Store) InsertVectors(ids []int64, vectors [][]float32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.HasVectorIndex() {
		return fmt.Errorf("store: vector index not initialized")
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("store: ids/vectors length mismatch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransient, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO events_vec (event_id, embedding) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare events_vec: %v", ErrTransient, err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if len(vectors[i]) != s.embedDim {
			return fmt.Errorf("%w: event %d has %d dims, want %d", ErrDimensionMismatch, id, len(vectors[i]), s.embedDim)
		}
		if _, err := stmt.Exec(id, encodeFloat32Slice(vectors[i])); err != nil {
			return fmt.Errorf("%w: insert vector: %v", ErrTransient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransient, err)
	}
	committed = true
	return nil
}

// deadLetterBatch is the on-disk shape of a diverted batch: newline-
// delimited JSON, one batch per line, under <store-dir>/deadletter/.
type deadLetterBatch struct {
	WrittenAt time.Time     `json:"written_at"`
	Records   []EventRecord `json:"records"`
}

func (s *Store) writeDeadLetter(records []EventRecord) error {
	dir := filepath.Join(s.dir, "deadletter")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	batch := deadLetterBatch{WrittenAt: time.Now(), Records: records}
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	final := filepath.Join(dir, fmt.Sprintf("batch-%d.ndjson", time.Now().UnixNano()))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	// Atomic rename so a reader never observes a partially written file.
	return os.Rename(tmp, final)
}
