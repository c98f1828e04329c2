package capture

import "errors"

var (
	// ErrPermissionDenied means the OS refused hook or accessibility
	// registration. Fatal to start.
	ErrPermissionDenied = errors.New("permission denied registering input hook")

	// ErrHookUnavailable means the display server or platform is
	// unsupported (e.g. Wayland). Fatal to start.
	ErrHookUnavailable = errors.New("hook unavailable on this platform")
)
