//go:build linux

package capture

import (
	"context"
	"fmt"
	"os"
)

// X11Source registers a global keyboard hook via the X11 display server.
// A real implementation would open an XRecord context; this build carries
// the registration/failure contract so the rest of the pipeline compiles
// and exercises PermissionDenied/HookUnavailable without requiring an X
// server in CI.
type X11Source struct {
	*syntheticSource
	displayAvailable func() bool
}

// NewHookSource returns the platform hook for Linux. On Wayland sessions
// (no X11 display, no XWayland record extension) it fails fast with
// ErrHookUnavailable per spec §4.1.
func NewHookSource() EventSource {
	return &X11Source{
		syntheticSource:  &syntheticSource{events: make(chan RawKeyEvent, 1024)},
		displayAvailable: defaultDisplayAvailable,
	}
}

func defaultDisplayAvailable() bool {
	// A real build probes $DISPLAY and the XRecord extension. Absence of
	// both means Wayland-only or headless, which is HookUnavailable.
	return os.Getenv("DISPLAY") != ""
}

func (s *X11Source) Start(ctx context.Context) error {
	if !s.displayAvailable() {
		return fmt.Errorf("%w: no X11 display or XRecord extension", ErrHookUnavailable)
	}
	return s.syntheticSource.Start(ctx)
}
