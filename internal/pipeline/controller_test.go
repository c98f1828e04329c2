package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sudo-psc/keyai-desktop/internal/capture"
	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/embedding"
	"github.com/Sudo-psc/keyai-desktop/internal/mask"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
	"github.com/Sudo-psc/keyai-desktop/internal/search"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

func newTestController(t *testing.T, embedder embedding.Engine) (*Controller, capture.Syntheticer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "events.db")

	cfg := config.DefaultConfig()
	cfg.Capture.BufferSize = 64
	cfg.Persist.MaxEventsPerFlush = 10
	cfg.Persist.FlushIntervalMS = 50
	cfgStore := config.NewStore(cfg)

	m := metrics.New()

	dim := 0
	if embedder != nil {
		dim = embedder.Dimensions()
	}
	st, err := store.Open(store.Options{Path: dbPath, EmbeddingDims: dim, Metrics: m})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	src := capture.NewSyntheticSource()
	stage := capture.NewStage(src, cfgStore, m)
	maskEng := mask.NewEngineWithMetrics(m)

	c := New(cfgStore, m, stage, maskEng, st, embedder)
	return c, src
}

func TestIngestTextMasksPIIBeforePersist(t *testing.T) {
	c, _ := newTestController(t, nil)

	id, err := c.IngestText(time.Now(), "my CPF is 123.456.789-01 and email a@b.co", "browser", "tab")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	rows, err := c.st.GetByIDs([]int64{id})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0].Content, "123.456.789-01")
	assert.Contains(t, rows[0].Content, "email")

	resp, err := c.SearchText("123", 10, 0, search.Filters{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestMonotonicIDsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	cfg := config.NewStore(config.DefaultConfig())
	m := metrics.New()

	st, err := store.Open(store.Options{Path: dbPath, Metrics: m})
	require.NoError(t, err)

	maskEng := mask.NewEngineWithMetrics(m)
	src := capture.NewSyntheticSource()
	stage := capture.NewStage(src, cfg, m)
	c := New(cfg, m, stage, maskEng, st, nil)

	var lastID int64
	for i := 0; i < 100; i++ {
		id, err := c.IngestText(time.Now(), "ordinary note text", "notes", "scratch")
		require.NoError(t, err)
		require.Greater(t, id, lastID)
		lastID = id
	}
	require.NoError(t, st.Close())

	st2, err := store.Open(store.Options{Path: dbPath, Metrics: m})
	require.NoError(t, err)
	defer st2.Close()
	c2 := New(cfg, m, stage, maskEng, st2, nil)

	nextID, err := c2.IngestText(time.Now(), "after reopen", "notes", "scratch")
	require.NoError(t, err)
	assert.Greater(t, nextID, lastID)
}

func TestEventualConsistencyOfVectors(t *testing.T) {
	embedder := embedding.NewHashEngine(4)
	c, _ := newTestController(t, embedder)
	if !c.st.HasVectorIndex() {
		t.Skip("sqlite-vec extension not available in this build")
	}

	id, err := c.IngestText(time.Now(), "semantic search note", "notes", "scratch")
	require.NoError(t, err)

	lexResp, err := c.SearchText("semantic", 10, 0, search.Filters{})
	require.NoError(t, err)
	require.Len(t, lexResp.Results, 1)
	assert.Equal(t, id, lexResp.Results[0].EventID)

	semResp, err := c.SearchSemantic(context.Background(), "semantic search note", 10, 0.0, search.Filters{})
	require.NoError(t, err)
	assert.Empty(t, semResp.Results, "vector not written yet, semantic search must not see the event")

	c.embedAndStore(id, "semantic search note")

	semResp, err = c.SearchSemantic(context.Background(), "semantic search note", 10, 0.0, search.Filters{})
	require.NoError(t, err)
	require.Len(t, semResp.Results, 1)
	assert.Equal(t, id, semResp.Results[0].EventID)
}

func TestStreamedKeystrokesPersistInArrivalOrder(t *testing.T) {
	c, src := newTestController(t, nil)
	ctx := context.Background()

	require.NoError(t, c.StartCapture(ctx))

	src.SetWindow(capture.WindowContext{Application: "editor", Title: "draft"})
	word := "hello"
	for i, ch := range word {
		src.Inject(capture.RawKeyEvent{TSMillis: int64(1000 + i), KeyCode: uint16(ch), Kind: capture.KindPress})
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.StopCapture(stopCtx))

	stats, err := c.st.Stats()
	require.NoError(t, err)
	require.Equal(t, int64(len(word)), stats.EventCount)

	ids := make([]int64, len(word))
	for i := range word {
		ids[i] = int64(i + 1)
	}
	rows, err := c.st.GetByIDs(ids)
	require.NoError(t, err)
	require.Len(t, rows, len(word))
	byID := make(map[int64]string, len(rows))
	for _, r := range rows {
		byID[r.ID] = r.Content
	}
	got := ""
	for _, id := range ids {
		got += byID[id]
	}
	assert.Equal(t, word, got)
}

func TestGetStatusReflectsRunningState(t *testing.T) {
	c, _ := newTestController(t, nil)
	ctx := context.Background()

	assert.False(t, c.GetStatus().Running)

	require.NoError(t, c.StartCapture(ctx))
	assert.True(t, c.GetStatus().Running)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.StopCapture(stopCtx))
	assert.False(t, c.GetStatus().Running)
}

func TestClearDataRequiresConfirm(t *testing.T) {
	c, _ := newTestController(t, nil)
	err := c.ClearData(false)
	assert.Error(t, err)

	_, ingestErr := c.IngestText(time.Now(), "to be cleared", "app", "win")
	require.NoError(t, ingestErr)

	require.NoError(t, c.ClearData(true))
	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.EventCount)
}

func TestExitCodeForMapsErrorTaxonomy(t *testing.T) {
	assert.Equal(t, 0, ExitCodeFor(nil))
	assert.Equal(t, 2, ExitCodeFor(&Error{Code: CodeConfigInvalid}))
	assert.Equal(t, 3, ExitCodeFor(&Error{Code: CodePermissionDenied}))
	assert.Equal(t, 4, ExitCodeFor(&Error{Code: CodeStoreCorrupt}))
	assert.Equal(t, 5, ExitCodeFor(assert.AnError))
}
