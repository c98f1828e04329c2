package search

import "github.com/Sudo-psc/keyai-desktop/internal/store"

// Backend is the read-path subset of *store.Store the Search Engine needs.
// Narrowed to an interface per the Store/Embedder polymorphism design note,
// so a test can materialize rows in memory instead of opening sqlite.
type Backend interface {
	QueryFTS(query string, limit, offset int, f store.Filters) ([]store.FTSHit, error)
	QueryVec(qvec []float32, limit int, f store.Filters) ([]store.VecHit, error)
	GetByIDs(ids []int64) ([]store.EventRow, error)
	HasVectorIndex() bool
	EmbeddingDim() int
}
