package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
)

// QueryFTS runs a full-text search against events_fts, returning hits
// ordered best-match-first with an FTS5 snippet already computed. rank is
// FTS5's native bm25-derived rank column (lower is better before any
// external normalization); callers in internal/search normalize it.
func (s *Store) QueryFTS(query string, limit, offset int, f Filters) ([]FTSHit, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("store: empty fts query")
	}

	where, args := buildFilterClause("e", f)
	args = append([]interface{}{query}, args...)

	sqlStr := `SELECT e.id, events_fts.rank, snippet(events_fts, 0, '[', ']', '...', 12)
		FROM events_fts JOIN events e ON e.id = events_fts.rowid
		WHERE events_fts MATCH ?`
	if where != "" {
		sqlStr += " AND " + where
	}
	sqlStr += " ORDER BY events_fts.rank LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	s.mu.Lock()
	rows, err := s.db.Query(sqlStr, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: query_fts: %v", ErrTransient, err)
	}
	defer rows.Close()

	var hits []FTSHit
	for rows.Next() {
		var h FTSHit
		if err := rows.Scan(&h.ID, &h.Rank, &h.Snippet); err != nil {
			return nil, fmt.Errorf("%w: scan fts hit: %v", ErrTransient, err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// QueryVec runs a cosine-nearest-neighbour search against events_vec,
// mirroring the corpus's vec_distance_cosine query shape.
func (s *Store) QueryVec(qvec []float32, limit int, f Filters) ([]VecHit, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !s.HasVectorIndex() {
		return nil, fmt.Errorf("store: vector index not initialized")
	}
	if len(qvec) != s.embedDim {
		return nil, fmt.Errorf("%w: query has %d dims, want %d", ErrDimensionMismatch, len(qvec), s.embedDim)
	}

	where, args := buildFilterClause("e", f)
	queryArgs := append([]interface{}{encodeFloat32Slice(qvec)}, args...)

	sqlStr := `SELECT e.id, vec_distance_cosine(events_vec.embedding, ?) AS dist
		FROM events_vec JOIN events e ON e.id = events_vec.event_id`
	if where != "" {
		sqlStr += " WHERE " + where
	}
	sqlStr += " ORDER BY dist ASC LIMIT ?"
	queryArgs = append(queryArgs, limit)

	s.mu.Lock()
	rows, err := s.db.Query(sqlStr, queryArgs...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: query_vec: %v", ErrTransient, err)
	}
	defer rows.Close()

	var hits []VecHit
	for rows.Next() {
		var id int64
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, fmt.Errorf("%w: scan vec hit: %v", ErrTransient, err)
		}
		hits = append(hits, VecHit{ID: id, Cosine: 1 - dist})
	}
	return hits, rows.Err()
}

// GetByIDs fetches full rows for a set of ids, in no particular order.
func (s *Store) GetByIDs(ids []int64) ([]EventRow, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	sqlStr := fmt.Sprintf(`SELECT id, ts, content, application, window_title, created_at, tags
		FROM events WHERE id IN (%s)`, strings.Join(placeholders, ","))

	s.mu.Lock()
	rows, err := s.db.Query(sqlStr, args...)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: get_by_ids: %v", ErrTransient, err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		var tsMS, createdMS int64
		var tags string
		if err := rows.Scan(&r.ID, &tsMS, &r.Content, &r.Application, &r.WindowTitle, &createdMS, &tags); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", ErrTransient, err)
		}
		r.TS = time.UnixMilli(tsMS)
		r.CreatedAt = time.UnixMilli(createdMS)
		if tags != "" {
			r.Tags = strings.Split(tags, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats reports row counts and timestamp bounds for get_stats/get_health.
func (s *Store) Stats() (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(MIN(ts), 0), COALESCE(MAX(ts), 0) FROM events`)
	var minTS, maxTS int64
	if err := row.Scan(&st.EventCount, &minTS, &maxTS); err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %v", ErrTransient, err)
	}
	if minTS > 0 {
		st.OldestEventTS = time.UnixMilli(minTS)
	}
	if maxTS > 0 {
		st.NewestEventTS = time.UnixMilli(maxTS)
	}

	if s.vectorExt {
		s.db.QueryRow(`SELECT COUNT(*) FROM events_vec`).Scan(&st.VectorCount)
	}

	if fi, err := fileSize(s.path); err == nil {
		st.DatabaseBytes = fi
	}
	st.DeadLetterCount = countDeadLetterFiles(s.dir)

	return st, nil
}

// Optimize runs FTS5's merge-based index consolidation. Safe to run
// concurrently with reads per spec §4.3.
func (s *Store) Optimize() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.Store("running index optimize")
	if _, err := s.db.Exec(`INSERT INTO events_fts(events_fts) VALUES('optimize')`); err != nil {
		return fmt.Errorf("%w: optimize fts: %v", ErrTransient, err)
	}
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		logging.StoreWarn("wal checkpoint failed: %v", err)
	}
	return nil
}

func buildFilterClause(alias string, f Filters) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if !f.From.IsZero() {
		clauses = append(clauses, alias+".ts >= ?")
		args = append(args, f.From.UnixMilli())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, alias+".ts <= ?")
		args = append(args, f.To.UnixMilli())
	}
	if len(f.AppAllow) > 0 {
		sub := make([]string, len(f.AppAllow))
		for i, app := range f.AppAllow {
			sub[i] = alias + ".application = ?"
			args = append(args, app)
		}
		clauses = append(clauses, "("+strings.Join(sub, " OR ")+")")
	}
	for _, app := range f.AppDeny {
		clauses = append(clauses, alias+".application != ?")
		args = append(args, app)
	}
	if f.ContentKind != "" {
		// tags is a comma-joined list with no surrounding delimiters; wrap it
		// at query time so a LIKE match can't straddle two adjacent tags.
		clauses = append(clauses, "(','||"+alias+".tags||',') LIKE ?")
		args = append(args, "%,"+f.ContentKind+",%")
	}

	return strings.Join(clauses, " AND "), args
}
