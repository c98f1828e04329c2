// Package store persists MaskedEvents durably and serves the lexical and
// vector read paths backing internal/search. It is go-sqlcipher (a
// SQLCipher-enabled fork of mattn/go-sqlite3, same driver name and DSN
// shape) over a single *sql.DB, grounded on the corpus's NewLocalStore
// open sequence: WAL journaling, NORMAL synchronous, a 5s busy timeout,
// and a best-effort sqlite-vec probe for the vector index. Using the
// cipher-enabled driver rather than plain mattn/go-sqlite3 is what makes
// cipherDSN's `_pragma_key` actually encrypt pages on disk instead of
// being silently ignored.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
)

// Store is the exclusive write path and the read path over the keystroke
// database. Safe for concurrent use: writes are serialized by mu, and all
// reads and writes share the pool's single connection, so a read waits for
// any write that holds it.
type Store struct {
	db   *sql.DB
	path string
	dir  string

	mu        sync.Mutex
	vectorExt bool
	embedDim  int
	closed    atomic.Bool

	metrics *metrics.Pipeline
}

// Options configures Open.
type Options struct {
	Path           string
	EncryptionKey  string // user secret; empty disables the cipherDSN pragma
	KeyDeriver     KeyDeriver
	EmbeddingDims  int // dimension for events_vec; 0 defers events_vec creation
	Metrics        *metrics.Pipeline
}

// Open creates or opens the database at opts.Path, ensuring parent
// directories, WAL pragmas, and the events/events_fts schema exist.
func Open(opts Options) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "deadletter"), 0o755); err != nil {
		return nil, fmt.Errorf("store: create deadletter directory: %w", err)
	}

	deriver := opts.KeyDeriver
	if deriver == nil {
		deriver = DefaultKeyDeriver
	}
	dsn := opts.Path
	if opts.EncryptionKey != "" {
		dsn = cipherDSN(opts.Path, deriver.DeriveKey(opts.EncryptionKey))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// A single connection avoids SQLITE_BUSY storms under WAL. Reads use the
	// same connection, so they do not run concurrently with a write.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreWarn("pragma failed (%s): %v", pragma, err)
		}
	}

	s := &Store{
		db:      db,
		path:    opts.Path,
		dir:     dir,
		metrics: opts.Metrics,
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	s.detectVecExtension()
	if opts.EmbeddingDims > 0 {
		s.embedDim = opts.EmbeddingDims
		s.initVecIndex(opts.EmbeddingDims)
	}

	logging.Store("store opened at %s (vector_ext=%v dim=%d)", opts.Path, s.vectorExt, s.embedDim)
	return s, nil
}

func (s *Store) initSchema() error {
	for _, ddl := range []string{eventsTable, eventsFTSTable, eventsFTSTriggers} {
		if _, err := s.db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

// detectVecExtension probes for sqlite-vec by creating and dropping a
// throwaway vec0 table, matching the corpus's detectVecExtension.
func (s *Store) detectVecExtension() {
	if _, err := s.db.Exec(vecProbeDDL); err == nil {
		s.vectorExt = true
		s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
	logging.StoreWarn("sqlite-vec extension not available; semantic search disabled until it is")
}

func (s *Store) initVecIndex(dim int) {
	if !s.vectorExt {
		return
	}
	if _, err := s.db.Exec(vecIndexDDL(dim)); err != nil {
		logging.Get(logging.CategoryStore).Error("failed to create events_vec (dim=%d): %v", dim, err)
		s.vectorExt = false
		return
	}
	logging.Store("events_vec index ready (dim=%d)", dim)
}

// Close closes the underlying database connection. Idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	logging.Store("closing store at %s", s.path)
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Path returns the database file path Open was called with.
func (s *Store) Path() string { return s.path }

// HasVectorIndex reports whether sqlite-vec is available and events_vec has
// been created with a fixed dimension.
func (s *Store) HasVectorIndex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vectorExt && s.embedDim > 0
}

// EmbeddingDim returns the store-wide embedding dimension, or 0 if the
// vector index has not been initialized yet.
func (s *Store) EmbeddingDim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embedDim
}

// EnsureVectorIndex lazily creates events_vec the first time an embedding
// dimension becomes known (e.g. once the configured Embedder reports it).
func (s *Store) EnsureVectorIndex(dim int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedDim != 0 || dim <= 0 {
		return
	}
	s.embedDim = dim
	s.initVecIndex(dim)
}
