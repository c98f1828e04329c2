package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sudo-psc/keyai-desktop/internal/capture"
	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/embedding"
	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/mask"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
	"github.com/Sudo-psc/keyai-desktop/internal/search"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

// embedWorkers bounds the semaphore-backed pool that computes embeddings
// for freshly-persisted events before InsertVectors. Kept small and fixed:
// embedding calls are network- or CPU-bound and unordered, so there is
// nothing to gain from scaling this with buffer_size.
const embedWorkers = 4

// Controller owns the stage goroutines (Mask, Persist, Embed) that sit
// between a capture.Stage and a store.Store, plus the Search engine that
// reads the same store. One Controller per running process.
type Controller struct {
	cfg       *config.Store
	metrics   *metrics.Pipeline
	capture   *capture.Stage
	maskEng   *mask.Engine
	st        *store.Store
	embedder  embedding.Engine
	embedPool *embedding.Pool
	searchEng *search.Engine

	mu      sync.Mutex
	running bool
	group   *errgroup.Group
	maskOut chan MaskedEvent
	cancel  context.CancelFunc
}

// New builds a Controller over an already-open Store and Capture source.
// embedder may be nil, matching search.NewEngine's tolerance for a
// semantic-search-disabled deployment.
func New(cfg *config.Store, m *metrics.Pipeline, captureStage *capture.Stage, maskEng *mask.Engine, st *store.Store, embedder embedding.Engine) *Controller {
	if m == nil {
		m = metrics.New()
	}
	c := &Controller{
		cfg:       cfg,
		metrics:   m,
		capture:   captureStage,
		maskEng:   maskEng,
		st:        st,
		embedder:  embedder,
		searchEng: search.NewEngine(st, embedder, cfg, m),
	}
	if embedder != nil {
		c.embedPool = embedding.NewPool(embedder, embedWorkers)
	}
	return c
}

// StartCapture starts the capture source and the Mask/Persist/Embed
// goroutines. Idempotent: calling it while already running is a no-op.
func (c *Controller) StartCapture(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}

	if err := c.capture.Start(ctx); err != nil {
		c.mu.Unlock()
		return wrapClassified(err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	bufSize := c.cfg.Current().Capture.BufferSize
	c.maskOut = make(chan MaskedEvent, bufSize)
	g, gctx := errgroup.WithContext(runCtx)
	c.group = g
	c.running = true
	c.mu.Unlock()

	g.Go(func() error { c.runMask(gctx); return nil })
	g.Go(func() error { c.runPersist(gctx); return nil })

	logging.Pipeline("pipeline started")
	return nil
}

// StopCapture stops the capture source and joins the Mask/Persist
// goroutines, via errgroup.Group.Wait, within the supplied deadline,
// releasing every stage resource regardless of which path out of this
// function is taken.
func (c *Controller) StopCapture(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	g := c.group
	c.running = false
	c.mu.Unlock()

	if err := c.capture.Stop(ctx); err != nil {
		logging.Get(logging.CategoryPipeline).Warn("capture stop reported error: %v", err)
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Get(logging.CategoryPipeline).Warn("pipeline stop deadline exceeded, force-returning")
	}

	logging.Pipeline("pipeline stopped")
	return nil
}

// IsRunning reports whether the pipeline is actively capturing.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// GetStatus answers get_status.
func (c *Controller) GetStatus() Status {
	snap := c.metrics.Snapshot()
	var lastTS time.Time
	if snap.LastEventTSMS > 0 {
		lastTS = time.UnixMilli(snap.LastEventTSMS)
	}
	return Status{
		Running:         c.IsRunning(),
		EventsCaptured:  snap.EventsCaptured,
		EventsProcessed: snap.EventsProcessed,
		EventsStored:    snap.EventsStored,
		LastEventTS:     lastTS,
		LastError:       snap.LastError,
	}
}

// IngestText masks and persists a single already-assembled text fragment
// synchronously, returning its assigned event id. This is the direct path
// for a caller that already has a whole fragment in hand — a paste, an IME
// composition commit, or a test driving the "insert event" operation
// directly rather than one raw keystroke at a time. The streaming path
// (runMask/runPersist, fed by capture.Stage) uses the same MaskText/
// InsertBatch primitives per fragment; this method differs only in running
// synchronously and outside the batching window.
func (c *Controller) IngestText(ts time.Time, content, application, windowTitle string) (int64, error) {
	result := c.maskEng.MaskText(content)
	record := store.EventRecord{TS: ts, Content: result.Masked, Application: application, WindowTitle: windowTitle, Tags: result.Tags}

	ids, err := c.st.InsertBatch([]store.EventRecord{record})
	if err != nil {
		return 0, wrapClassified(err)
	}
	c.metrics.EventsStored.Add(1)
	id := ids[0]

	if c.embedPool != nil {
		content := record.Content
		if !c.embedPool.TrySubmit(func() { c.embedAndStore(id, content) }) {
			logging.PipelineDebug("embed pool saturated, dropping embedding for event %d (vector index stays eventually consistent)", id)
		}
	}
	return id, nil
}

func (c *Controller) embedAndStore(id int64, content string) {
	vec, err := c.embedder.Embed(context.Background(), content)
	if err != nil {
		logging.EmbeddingDebug("embed failed for event %d: %v", id, err)
		return
	}
	c.st.EnsureVectorIndex(len(vec))
	if err := c.st.InsertVectors([]int64{id}, [][]float32{vec}); err != nil {
		logging.Get(logging.CategoryStore).Warn("insert vector failed for event %d: %v", id, err)
	}
}

// runMask reads CapturedEvents with non-empty Text off the capture stage,
// masks them, and forwards survivors to the bounded mask->persist channel.
// Per spec §5 the mask->persist channel uses the same block-the-producer
// policy as capture->mask: a slow Persist stage backs up here rather than
// silently dropping events, the one channel in the pipeline allowed to lose
// data being hook->capture.
func (c *Controller) runMask(ctx context.Context) {
	defer close(c.maskOut)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.capture.Out():
			if !ok {
				return
			}
			if evt.Text == "" {
				continue
			}
			result := c.maskEng.MaskText(evt.Text)
			me := MaskedEvent{
				TS:          evt.TS,
				Content:     result.Masked,
				Application: evt.Window.Application,
				WindowTitle: evt.Window.Title,
				Tags:        result.Tags,
			}
			select {
			case c.maskOut <- me:
			case <-ctx.Done():
				return
			}
		}
	}
}

// runPersist batches MaskedEvents by count and time and hands them to
// store.InsertBatch, then submits the assigned ids to the embed pool.
func (c *Controller) runPersist(ctx context.Context) {
	pc := c.cfg.Current().Persist
	flushInterval := time.Duration(pc.FlushIntervalMS) * time.Millisecond
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]MaskedEvent, 0, c.cfg.Current().Persist.MaxEventsPerFlush)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		c.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case evt, ok := <-c.maskOut:
			if !ok {
				flush()
				return
			}
			batch = append(batch, evt)
			if len(batch) >= c.cfg.Current().Persist.MaxEventsPerFlush {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (c *Controller) flushBatch(batch []MaskedEvent) {
	records := make([]store.EventRecord, len(batch))
	for i, e := range batch {
		records[i] = store.EventRecord{TS: e.TS, Content: e.Content, Application: e.Application, WindowTitle: e.WindowTitle, Tags: e.Tags}
	}
	ids, err := c.st.InsertBatch(records)
	if err != nil {
		logging.Get(logging.CategoryPipeline).Error("persist batch failed: %v", err)
		return
	}
	c.metrics.EventsStored.Add(int64(len(ids)))

	if c.embedPool == nil {
		return
	}
	for i, id := range ids {
		id, content := id, records[i].Content
		if !c.embedPool.TrySubmit(func() { c.embedAndStore(id, content) }) {
			logging.PipelineDebug("embed pool saturated, dropping embedding for event %d (vector index stays eventually consistent)", id)
		}
	}
}
