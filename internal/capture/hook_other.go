//go:build !linux && !windows

package capture

import (
	"context"
	"fmt"
)

// unsupportedSource reports HookUnavailable on Start for platforms with no
// registered hook implementation in this build.
type unsupportedSource struct {
	*syntheticSource
}

// NewHookSource returns a stub hook for unsupported platforms.
func NewHookSource() EventSource {
	return &unsupportedSource{syntheticSource: &syntheticSource{events: make(chan RawKeyEvent, 1024)}}
}

func (s *unsupportedSource) Start(_ context.Context) error {
	return fmt.Errorf("%w: no hook implementation for this platform", ErrHookUnavailable)
}
