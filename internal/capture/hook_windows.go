//go:build windows

package capture

import (
	"context"
	"fmt"
)

// WindowsRawInputSource registers a Raw Input keyboard device in the style
// of RIDEV_INPUTSINK, cross-checking WH_KEYBOARD_LL's LLKHF_INJECTED flag
// to distinguish physical keystrokes from synthetic ones. A real build
// wires this to the user32 Raw Input API via cgo or golang.org/x/sys/windows;
// this carries the registration/failure contract.
type WindowsRawInputSource struct {
	*syntheticSource
	registerDevice func() error
}

// NewHookSource returns the platform hook for Windows.
func NewHookSource() EventSource {
	return &WindowsRawInputSource{
		syntheticSource: &syntheticSource{events: make(chan RawKeyEvent, 1024)},
		registerDevice:  defaultRegisterDevice,
	}
}

func defaultRegisterDevice() error {
	// A real build calls RegisterRawInputDevices; failure (e.g. denied
	// accessibility/input permission) maps to ErrPermissionDenied.
	return nil
}

func (s *WindowsRawInputSource) Start(ctx context.Context) error {
	if err := s.registerDevice(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return s.syntheticSource.Start(ctx)
}
