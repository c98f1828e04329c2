package pipeline

import (
	"errors"
	"fmt"

	"github.com/Sudo-psc/keyai-desktop/internal/capture"
	"github.com/Sudo-psc/keyai-desktop/internal/config"
	"github.com/Sudo-psc/keyai-desktop/internal/search"
	"github.com/Sudo-psc/keyai-desktop/internal/store"
)

// Code names one entry in the external interface's error taxonomy (spec
// §7). Every Controller method that can fail wraps the failure in an Error
// carrying one of these, so a caller (the CLI, a future RPC surface) can
// switch on Code without needing to know which package originated it.
type Code string

const (
	CodePermissionDenied  Code = "permission_denied"
	CodeHookUnavailable   Code = "hook_unavailable"
	CodeConfigInvalid     Code = "config_invalid"
	CodeChannelOverflow   Code = "channel_overflow"
	CodeStoreTransient    Code = "store_transient"
	CodeStorePersistent   Code = "store_persistent"
	CodeStoreCorrupt      Code = "store_corrupt"
	CodeInvalidQuery      Code = "invalid_query"
	CodeSearchUnavailable Code = "search_unavailable"
	CodeTimeout           Code = "timeout"
	CodePatternMatchError Code = "pattern_match_error"
)

// Error pairs a taxonomy Code with the underlying cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// classify maps a package-level sentinel error into the pipeline's taxonomy
// Code, falling back to CodeStoreTransient-adjacent treatment only where the
// spec's own taxonomy has no better fit.
func classify(err error) Code {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, capture.ErrHookUnavailable):
		return CodeHookUnavailable
	case errors.Is(err, config.ErrConfigInvalid):
		return CodeConfigInvalid
	case errors.Is(err, store.ErrCorrupt):
		return CodeStoreCorrupt
	case errors.Is(err, store.ErrPersistent):
		return CodeStorePersistent
	case errors.Is(err, store.ErrTransient):
		return CodeStoreTransient
	case errors.Is(err, search.ErrInvalidQuery):
		return CodeInvalidQuery
	case errors.Is(err, search.ErrWeightsZero):
		return CodeInvalidQuery
	case errors.Is(err, search.ErrSearchUnavailable):
		return CodeSearchUnavailable
	default:
		return CodeStoreTransient
	}
}

// wrapClassified wraps err in an Error whose Code is inferred from the
// sentinel chain, for call sites that proxy a lower package's error
// verbatim rather than originating their own Code.
func wrapClassified(err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Code: classify(err), Err: err}
}

// ExitCodeFor maps an error (possibly nil) to the process exit code the CLI
// surfaces, per spec §6: 0 success, 2 config error, 3 permission denied, 4
// store open failure, 5 fatal runtime error.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return 5
	}
	switch pe.Code {
	case CodeConfigInvalid:
		return 2
	case CodePermissionDenied, CodeHookUnavailable:
		return 3
	case CodeStoreCorrupt, CodeStorePersistent:
		return 4
	default:
		return 5
	}
}
