package capture

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
)

// State is the capture stage's lifecycle state.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Stage owns the event source, an intake goroutine that fills the ring
// buffer, and the capture worker that drains it. It forwards CapturedEvents
// to a bounded channel consumed by the Mask stage. There is no separate
// window-probe goroutine: each event is paired with the source's
// CurrentWindow() at the moment the worker handles it.
type Stage struct {
	source  EventSource
	cfg     *config.Store
	metrics *metrics.Pipeline

	mu          sync.Mutex
	state       State
	out         chan CapturedEvent
	ring        *ringBuffer
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	restartOnce int32
	sessionID   string
}

// NewStage builds a capture Stage over source, reading its tunables from
// cfg's current snapshot and re-reading on every config swap.
func NewStage(source EventSource, cfg *config.Store, m *metrics.Pipeline) *Stage {
	return &Stage{
		source:  source,
		cfg:     cfg,
		metrics: m,
		ring:    newRingBuffer(1024),
	}
}

// Start is idempotent: binds the hook, launches the intake goroutine and
// the capture worker. Returns ErrPermissionDenied / ErrHookUnavailable per
// the source's Start failure.
func (s *Stage) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateStarting {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStarting
	bufSize := s.cfg.Current().Capture.BufferSize
	s.out = make(chan CapturedEvent, bufSize)
	sessionID := uuid.NewString()
	s.sessionID = sessionID
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.source.Start(ctx); err != nil {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		return err
	}

	s.wg.Add(2)
	go s.runIntake(runCtx)
	go s.runHookDrain(runCtx)

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()
	logging.Capture("capture stage started, session=%s buffer_size=%d", sessionID, bufSize)
	return nil
}

// Stop joins the capture worker with a bounded deadline and closes Out.
func (s *Stage) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateStopping {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := s.source.Stop(ctx); err != nil {
		logging.CaptureWarn("source stop reported error: %v", err)
	}

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-ctx.Done():
		logging.CaptureWarn("capture stop deadline exceeded, force-joining")
	}

	s.mu.Lock()
	close(s.out)
	s.state = StateStopped
	s.mu.Unlock()
	logging.Capture("capture stage stopped")
	return nil
}

// IsRunning reports whether the stage is actively capturing.
func (s *Stage) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// Out returns the channel of events forwarded to Mask.
func (s *Stage) Out() <-chan CapturedEvent { return s.out }

// SessionID returns the id generated for the current (or most recent) Start
// call, correlating every CapturedEvent it produced.
func (s *Stage) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// CurrentWindow proxies to the underlying source.
func (s *Stage) CurrentWindow() WindowContext { return s.source.CurrentWindow() }

// StateValue reports the current lifecycle state.
func (s *Stage) StateValue() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// runIntake copies RawKeyEvents from the source's channel into the
// drop-oldest ring buffer, the one seam where the spec permits data loss.
// This keeps the source's own channel draining fast so a slow downstream
// classify/filter pass never backs up into the hook thread.
func (s *Stage) runIntake(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.source.Events():
			if !ok {
				return
			}
			if s.ring.Push(evt) {
				s.metrics.EventsDropped.Store(s.ring.Dropped())
				s.metrics.ChannelOverflow.Add(1)
			}
		}
	}
}

// runHookDrain pops from the ring buffer, classifies and filters, and
// forwards survivors to out. A panic in this loop triggers one restart
// attempt after a 500ms cooldown; a second panic is fatal.
func (s *Stage) runHookDrain(ctx context.Context) {
	defer s.wg.Done()
	s.drainWithRecovery(ctx)
}

func (s *Stage) drainWithRecovery(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			if atomic.CompareAndSwapInt32(&s.restartOnce, 0, 1) {
				logging.Get(logging.CategoryCapture).Error("capture worker panicked, restarting once: %v", r)
				time.Sleep(500 * time.Millisecond)
				s.drainWithRecovery(ctx)
				return
			}
			logging.Get(logging.CategoryCapture).Error("capture worker panicked twice, stage fatal: %v", r)
			s.metrics.RecordError(fmt.Sprintf("capture worker fatal: %v", r))
		}
	}()

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				evt, ok := s.ring.Pop()
				if !ok {
					break
				}
				s.handleRaw(evt)
			}
		}
	}
}

func (s *Stage) handleRaw(raw RawKeyEvent) {
	s.metrics.EventsCaptured.Add(1)
	s.metrics.LastEventTSMS.Store(raw.TSMillis)

	key, isModifier, isFunction := classify(raw.KeyCode)
	window := s.source.CurrentWindow()
	cfg := s.cfg.Current().Capture

	if raw.Kind != KindPress {
		return
	}
	if appIgnored(window.Application, cfg.IgnoredApplications) {
		return
	}
	if titleIgnored(window.Title, cfg.IgnoredWindowRegexes()) {
		return
	}
	if isModifier && !cfg.CaptureModifiers {
		return
	}
	if isFunction && !cfg.CaptureFunctionKeys {
		return
	}

	evt := CapturedEvent{
		TS:         time.UnixMilli(raw.TSMillis),
		Key:        key,
		Kind:       raw.Kind,
		IsModifier: isModifier,
		IsFunction: isFunction,
		Window:     window,
		SessionID:  s.sessionID,
	}
	if !isModifier && !isFunction && len(key) == 1 {
		evt.Text = key
	}

	s.out <- evt
	s.metrics.EventsProcessed.Add(1)
}

func appIgnored(app string, ignored []string) bool {
	app = strings.ToLower(app)
	for _, entry := range ignored {
		if strings.Contains(app, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}

func titleIgnored(title string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
