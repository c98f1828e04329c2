package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Options{Path: filepath.Join(dir, "events.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.EventCount)
}

func TestInsertBatchAssignsMonotonicIDs(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "hello world", Application: "notes"},
		{TS: time.Now(), Content: "second line", Application: "notes"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Less(t, ids[0], ids[1])

	more, err := s.InsertBatch([]EventRecord{{TS: time.Now(), Content: "third", Application: "notes"}})
	require.NoError(t, err)
	assert.Greater(t, more[0], ids[1])
}

func TestInsertBatchEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.InsertBatch(nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestGetByIDsReturnsInsertedContent(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "my CPF is masked", Application: "term", Tags: []string{"cpf"}},
	})
	require.NoError(t, err)

	rows, err := s.GetByIDs(ids)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "my CPF is masked", rows[0].Content)
	assert.Equal(t, []string{"cpf"}, rows[0].Tags)
	assert.True(t, rows[0].CreatedAt.UnixMilli() >= rows[0].TS.UnixMilli())
}

func TestQueryFTSFindsMatchingContent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "email login page", Application: "browser"},
		{TS: time.Now(), Content: "breakfast recipe ideas", Application: "notes"},
	})
	require.NoError(t, err)

	hits, err := s.QueryFTS("login", 10, 0, Filters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Snippet, "login")
}

func TestQueryFTSRejectsEmptyQuery(t *testing.T) {
	s := newTestStore(t)
	_, err := s.QueryFTS("   ", 10, 0, Filters{})
	assert.Error(t, err)
}

func TestQueryFTSAppliesApplicationFilter(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "meeting notes today", Application: "notes"},
		{TS: time.Now(), Content: "meeting notes archived", Application: "vault"},
	})
	require.NoError(t, err)

	hits, err := s.QueryFTS("meeting", 10, 0, Filters{AppAllow: []string{"notes"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestQueryFTSAppliesContentKindFilter(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "meeting notes today", Application: "notes", Tags: []string{"cpf"}},
		{TS: time.Now(), Content: "meeting notes archived", Application: "notes", Tags: []string{"email"}},
	})
	require.NoError(t, err)

	hits, err := s.QueryFTS("meeting", 10, 0, Filters{ContentKind: "cpf"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestQueryFTSOffsetBeyondCountReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{{TS: time.Now(), Content: "single event", Application: "notes"}})
	require.NoError(t, err)

	hits, err := s.QueryFTS("single", 10, 50, Filters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQueryVecWithoutIndexErrors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.QueryVec([]float32{1, 0, 0}, 5, Filters{})
	assert.Error(t, err)
}

func TestQueryVecDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	s.EnsureVectorIndex(4)
	if !s.HasVectorIndex() {
		t.Skip("sqlite-vec extension not available in this build")
	}
	_, err := s.QueryVec([]float32{1, 0}, 5, Filters{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClearRemovesAllRowsButKeepsIDSequence(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.InsertBatch([]EventRecord{{TS: time.Now(), Content: "to be cleared", Application: "notes"}})
	require.NoError(t, err)

	require.NoError(t, s.Clear())

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.EventCount)

	more, err := s.InsertBatch([]EventRecord{{TS: time.Now(), Content: "after clear", Application: "notes"}})
	require.NoError(t, err)
	assert.Greater(t, more[0], ids[0])
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "alpha event", Application: "notes", Tags: []string{"none"}},
		{TS: time.Now(), Content: "beta event", Application: "term"},
	})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "export.json")
	n, err := s.ExportJSON(time.Time{}, time.Time{}, dest, false, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = os.Stat(dest)
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	imported, err := s.ImportJSON(dest)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.EventCount)
}

func TestExportJSONWritesNDJSONLines(t *testing.T) {
	s := newTestStore(t)
	_, err := s.InsertBatch([]EventRecord{
		{TS: time.Now(), Content: "alpha event", Application: "notes", Tags: []string{"cpf"}},
	})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "export.ndjson")
	n, err := s.ExportJSON(time.Time{}, time.Time{}, dest, false, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)

	var ev exportedEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.NotZero(t, ev.ID)
	assert.NotZero(t, ev.CreatedAt)
	assert.Equal(t, "alpha event", ev.Content)
	assert.Equal(t, []string{"cpf"}, ev.Tags)
}

func TestImportJSONRejectsDuplicateIDs(t *testing.T) {
	s := newTestStore(t)
	dest := filepath.Join(t.TempDir(), "dup.ndjson")
	line := `{"id":1,"ts":1,"content":"x","application":"notes","window_title":"","created_at":1}` + "\n"
	require.NoError(t, os.WriteFile(dest, []byte(line+line), 0o644))

	_, err := s.ImportJSON(dest)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestOptimizeIsSafeOnEmptyStore(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Optimize())
}

func TestOperationsAfterCloseReturnErrClosed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.InsertBatch([]EventRecord{{TS: time.Now(), Content: "x"}})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.GetByIDs([]int64{1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
