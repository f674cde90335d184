package mode

import (
	"errors"
	"fmt"
)

var (
	ErrModeNotFound      = errors.New("mode not found")
	ErrInvalidModeType   = errors.New("invalid mode type")
	ErrInvalidDefinition = errors.New("invalid mode definition")
	ErrModeDisabled      = errors.New("mode is disabled")
	ErrModeActive        = errors.New("mode is active")
	ErrBusy              = errors.New("mode transition in progress")
	ErrHookFailed        = errors.New("mode hook failed")
)

// HookError records a lifecycle hook that returned an error, panicked, or timed out.
type HookError struct {
	ModeID string
	Hook   string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook for mode %q: %v", e.Hook, e.ModeID, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrHookFailed) match any HookError.
func (e *HookError) Is(target error) bool {
	return target == ErrHookFailed
}
