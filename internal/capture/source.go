package capture

import "context"

// EventSource abstracts the OS-specific hook, per the spec's "Polymorphism"
// design note: a real platform hook and a synthetic test double both
// satisfy this interface so the rest of the pipeline never branches on OS.
type EventSource interface {
	// Start registers the hook and begins delivering events. Idempotent.
	Start(ctx context.Context) error

	// Stop unregisters the hook and closes the Events channel. Blocks until
	// the hook thread has joined or ctx's deadline elapses.
	Stop(ctx context.Context) error

	// Events returns the channel the hook writes RawKeyEvents to. The
	// channel is closed after a successful Stop.
	Events() <-chan RawKeyEvent

	// CurrentWindow returns the most recent WindowContext snapshot.
	CurrentWindow() WindowContext
}

// syntheticSource is an in-memory EventSource for tests and for platforms
// with no registered hook implementation. Events are injected via Inject.
type syntheticSource struct {
	events  chan RawKeyEvent
	window  WindowContext
	running bool
	stopped bool // events was closed by a previous Stop
}

// NewSyntheticSource returns an EventSource driven entirely by test code,
// typed as Syntheticer so callers can Inject events and set window context.
func NewSyntheticSource() Syntheticer {
	return &syntheticSource{
		events: make(chan RawKeyEvent, 1024),
	}
}

func (s *syntheticSource) Start(_ context.Context) error {
	if s.running {
		return nil
	}
	if s.stopped {
		s.events = make(chan RawKeyEvent, cap(s.events))
		s.stopped = false
	}
	s.running = true
	return nil
}

func (s *syntheticSource) Stop(_ context.Context) error {
	if !s.running {
		return nil
	}
	s.running = false
	s.stopped = true
	close(s.events)
	return nil
}

func (s *syntheticSource) Events() <-chan RawKeyEvent { return s.events }

func (s *syntheticSource) CurrentWindow() WindowContext { return s.window }

// Inject delivers a synthetic raw event, for use by tests driving the
// pipeline end to end without a real hook.
func (s *syntheticSource) Inject(evt RawKeyEvent) {
	s.events <- evt
}

// SetWindow updates the window snapshot the source reports.
func (s *syntheticSource) SetWindow(w WindowContext) {
	s.window = w
}

// Syntheticer exposes the test-only injection surface of syntheticSource
// without leaking the concrete type from NewSyntheticSource.
type Syntheticer interface {
	EventSource
	Inject(RawKeyEvent)
	SetWindow(WindowContext)
}
