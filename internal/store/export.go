package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

// exportedEvent is the line-delimited wire shape for export_json/import_json.
// ID and CreatedAt round-trip verbatim so re-import can detect duplicates
// against a previously exported or merged file; Embedding/ModelTag are only
// populated when the caller asks ExportJSON to include vectors.
type exportedEvent struct {
	ID          int64     `json:"id"`
	TS          int64     `json:"ts"`
	Content     string    `json:"content"`
	Application string    `json:"application"`
	WindowTitle string    `json:"window_title"`
	CreatedAt   int64     `json:"created_at"`
	Tags        []string  `json:"tags,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	ModelTag    string    `json:"model_tag,omitempty"`
}

// ExportJSON writes every event with ts in [from, to] (zero bounds are
// unbounded) to destPath as newline-delimited JSON, one object per event,
// using the same write-to-temp then atomic-rename pattern as the
// dead-letter writer. When includeEmbeddings is true and the store has a
// vector index, each line that has a stored embedding also carries its
// vector and modelTag.
func (s *Store) ExportJSON(from, to time.Time, destPath string, includeEmbeddings bool, modelTag string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	rows, err := s.rowsInRange(from, to)
	if err != nil {
		return 0, err
	}

	var vecByID map[int64][]float32
	if includeEmbeddings && s.HasVectorIndex() {
		vecByID, err = s.vectorsByIDs(idsOf(rows))
		if err != nil {
			return 0, err
		}
	}

	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("store: write export: %w", err)
	}
	w := bufio.NewWriter(f)

	count := 0
	for _, r := range rows {
		var tags []string
		if r.tagsRaw != "" {
			tags = strings.Split(r.tagsRaw, ",")
		}
		ev := exportedEvent{
			ID:          r.row.ID,
			TS:          r.row.TS.UnixMilli(),
			Content:     r.row.Content,
			Application: r.row.Application,
			WindowTitle: r.row.WindowTitle,
			CreatedAt:   r.row.CreatedAt.UnixMilli(),
			Tags:        tags,
		}
		if vec, ok := vecByID[r.row.ID]; ok {
			ev.Embedding = vec
			ev.ModelTag = modelTag
		}
		line, err := json.Marshal(ev)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return 0, fmt.Errorf("store: marshal export line: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			f.Close()
			os.Remove(tmp)
			return 0, fmt.Errorf("store: write export: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			os.Remove(tmp)
			return 0, fmt.Errorf("store: write export: %w", err)
		}
		count++
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("store: flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("store: close export: %w", err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return 0, fmt.Errorf("store: finalize export: %w", err)
	}

	logging.Store("exported %d events to %s", count, destPath)
	return count, nil
}

func idsOf(rows []rowWithTags) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.row.ID
	}
	return ids
}

// vectorsByIDs fetches stored embeddings for a set of event ids, omitting
// ids with no vector rather than erroring.
func (s *Store) vectorsByIDs(ids []int64) (map[int64][]float32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	sqlStr := fmt.Sprintf(`SELECT event_id, embedding FROM events_vec WHERE event_id IN (%s)`, strings.Join(placeholders, ","))

	s.mu.Lock()
	rows, err := s.db.Query(sqlStr, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: export vectors: %v", ErrTransient, err)
	}
	defer rows.Close()

	out := make(map[int64][]float32, len(ids))
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan export vector: %v", ErrTransient, err)
		}
		out[id] = decodeFloat32Slice(blob)
	}
	return out, rows.Err()
}

type rowWithTags struct {
	row     EventRow
	tagsRaw string
}

func (s *Store) rowsInRange(from, to time.Time) ([]rowWithTags, error) {
	where, args := buildFilterClause("events", Filters{From: from, To: to})
	sqlStr := `SELECT id, ts, content, application, window_title, tags, created_at FROM events`
	if where != "" {
		sqlStr += " WHERE " + where
	}
	sqlStr += " ORDER BY id ASC"

	s.mu.Lock()
	rows, err := s.db.Query(sqlStr, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: export query: %v", ErrTransient, err)
	}
	defer rows.Close()

	var out []rowWithTags
	for rows.Next() {
		var r EventRow
		var tsMS, createdMS int64
		var tags string
		if err := rows.Scan(&r.ID, &tsMS, &r.Content, &r.Application, &r.WindowTitle, &tags, &createdMS); err != nil {
			return nil, fmt.Errorf("%w: scan export row: %v", ErrTransient, err)
		}
		r.TS = time.UnixMilli(tsMS)
		r.CreatedAt = time.UnixMilli(createdMS)
		out = append(out, rowWithTags{row: r, tagsRaw: tags})
	}
	return out, rows.Err()
}

// ImportJSON reads a newline-delimited file previously written by
// ExportJSON and inserts its events as fresh rows, in batches of 500.
// Duplicate ids within the import stream are rejected with ErrDuplicateID
// before any row is inserted; events.id itself is reassigned on insert, so
// the check only guards against a malformed or concatenated export file.
// Returns the number of events inserted.
func (s *Store) ImportJSON(srcPath string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("store: read import file: %w", err)
	}
	defer f.Close()

	var events []exportedEvent
	seen := make(map[int64]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e exportedEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return 0, fmt.Errorf("store: parse import file line %d: %w", lineNo, err)
		}
		if _, dup := seen[e.ID]; dup {
			return 0, fmt.Errorf("%w: id %d (line %d)", ErrDuplicateID, e.ID, lineNo)
		}
		seen[e.ID] = struct{}{}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("store: read import file: %w", err)
	}

	const chunkSize = 500
	total := 0
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}
		batch := make([]EventRecord, 0, end-start)
		for _, e := range events[start:end] {
			batch = append(batch, EventRecord{
				TS:          time.UnixMilli(e.TS),
				Content:     e.Content,
				Application: e.Application,
				WindowTitle: e.WindowTitle,
				Tags:        e.Tags,
			})
		}
		ids, err := s.InsertBatch(batch)
		if err != nil {
			return total, fmt.Errorf("store: import batch [%d:%d]: %w", start, end, err)
		}
		total += len(ids)
	}

	logging.Store("imported %d events from %s", total, srcPath)
	return total, nil
}

// Clear removes all events, their FTS shadow, and any vectors. Used for
// test fixtures and explicit user-initiated resets.
func (s *Store) Clear() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin clear: %v", ErrTransient, err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("%w: clear events: %v", ErrTransient, err)
	}
	if _, err := tx.Exec(`INSERT INTO events_fts(events_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("%w: rebuild fts: %v", ErrTransient, err)
	}
	if s.vectorExt {
		if _, err := tx.Exec(`DELETE FROM events_vec`); err != nil {
			return fmt.Errorf("%w: clear events_vec: %v", ErrTransient, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit clear: %v", ErrTransient, err)
	}
	committed = true

	logging.Store("store cleared")
	return nil
}
