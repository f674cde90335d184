package mode

import (
	"context"
	"fmt"
	"time"
)

const (
	hookActivate     = "activate"
	hookDeactivate   = "deactivate"
	hookSessionStart = "session_start"
	hookSessionEnd   = "session_end"
)

// callHook runs fn under the hook timeout. A hook that never returns is abandoned
// when the deadline passes; its goroutine is left to finish on its own.
func callHook(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	hookCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(hookCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-hookCtx.Done():
		return hookCtx.Err()
	}
}

// runBestEffortHook invokes a hook whose failure must not stop the caller. Failures are
// logged and dropped.
func (o *Orchestrator) runBestEffortHook(ctx context.Context, modeID string, hook string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	if err := callHook(ctx, o.hookTimeout, fn); err != nil {
		o.log.Warn().
			Err(err).
			Str("mode", modeID).
			Str("hook", hook).
			Msg("Mode hook failed, continuing")
	}
}

// runGuardedHook invokes a hook whose failure aborts the caller's transition.
func (o *Orchestrator) runGuardedHook(ctx context.Context, modeID string, hook string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	if err := callHook(ctx, o.hookTimeout, fn); err != nil {
		o.log.Warn().
			Err(err).
			Str("mode", modeID).
			Str("hook", hook).
			Msg("Mode hook failed, transition rolled back")
		return &HookError{ModeID: modeID, Hook: hook, Err: err}
	}
	return nil
}

func sessionHook(fn func(context.Context, string) error, sessionID string) func(context.Context) error {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return fn(ctx, sessionID)
	}
}
