package mode

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tapedeck/internal/domain"
)

const defaultHookTimeout = 5 * time.Second

// Listener observes committed orchestrator state. Deliveries are serialized and arrive
// in commit order; a listener must not call back into mutating orchestrator methods.
type Listener interface {
	ModeChanged(status domain.ModeStatus)
}

// Options tune an Orchestrator.
type Options struct {
	HookTimeout time.Duration
	Logger      zerolog.Logger
	Listener    Listener
}

// Orchestrator tracks the single active primary mode and the ordered set of active
// overlays. Hooks always run without the state lock held, so a hook may call back
// into the orchestrator.
type Orchestrator struct {
	registry    *Registry
	log         zerolog.Logger
	hookTimeout time.Duration
	listener    Listener

	mu           sync.Mutex
	primary      string
	target       string
	overlays     []string
	pending      map[string]struct{}
	deactivating map[string]struct{}
	switching    bool
	version      uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// statusChange is a committed status and its position in commit order.
type statusChange struct {
	version uint64
	status  domain.ModeStatus
}

func NewOrchestrator(registry *Registry, opts Options) *Orchestrator {
	if opts.HookTimeout <= 0 {
		opts.HookTimeout = defaultHookTimeout
	}
	o := &Orchestrator{
		registry:     registry,
		log:          opts.Logger.With().Str("component", "mode_orchestrator").Logger(),
		hookTimeout:  opts.HookTimeout,
		listener:     opts.Listener,
		pending:      make(map[string]struct{}),
		deactivating: make(map[string]struct{}),
	}
	registry.setUnregisterGuard(o.guardUnregister)
	return o
}

// SwitchPrimaryMode makes id the current primary mode. Deactivation and activation hook
// failures are logged; once validation passes the new mode is always committed.
// A switch requested while another is in flight fails with ErrBusy.
func (o *Orchestrator) SwitchPrimaryMode(ctx context.Context, id string) error {
	o.mu.Lock()
	target, err := o.resolve(id, domain.ModeTypePrimary)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if o.primary == id {
		o.mu.Unlock()
		return nil
	}
	if o.switching {
		o.mu.Unlock()
		return fmt.Errorf("%w: switching to %s", ErrBusy, id)
	}
	o.switching = true
	o.target = id
	previousID := o.primary
	o.mu.Unlock()

	if previousID != "" {
		if previous, ok := o.registry.Get(previousID); ok {
			o.runBestEffortHook(ctx, previousID, hookDeactivate, previous.Hooks.OnDeactivate)
		}
	}

	o.mu.Lock()
	o.primary = id
	o.mu.Unlock()

	o.runBestEffortHook(ctx, id, hookActivate, target.Hooks.OnActivate)

	o.mu.Lock()
	o.switching = false
	o.target = ""
	change := o.commitLocked()
	o.mu.Unlock()

	o.log.Info().Str("from", previousID).Str("to", id).Msg("Primary mode switched")
	o.publish(change)
	return nil
}

// ActivateOverlay layers an overlay mode. If its activate hook fails the overlay is not
// added and the returned error matches ErrHookFailed.
func (o *Orchestrator) ActivateOverlay(ctx context.Context, id string) error {
	o.mu.Lock()
	def, err := o.resolve(id, domain.ModeTypeOverlay)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if _, leaving := o.deactivating[id]; leaving {
		o.mu.Unlock()
		return fmt.Errorf("%w: deactivating %s", ErrBusy, id)
	}
	if slices.Contains(o.overlays, id) {
		o.mu.Unlock()
		return nil
	}
	if !def.Enabled {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModeDisabled, id)
	}
	if _, inFlight := o.pending[id]; inFlight {
		o.mu.Unlock()
		return fmt.Errorf("%w: activating %s", ErrBusy, id)
	}
	o.pending[id] = struct{}{}
	o.mu.Unlock()

	hookErr := o.runGuardedHook(ctx, id, hookActivate, def.Hooks.OnActivate)

	o.mu.Lock()
	delete(o.pending, id)
	if hookErr != nil {
		o.mu.Unlock()
		return hookErr
	}
	if !slices.Contains(o.overlays, id) {
		o.overlays = append(o.overlays, id)
	}
	change := o.commitLocked()
	o.mu.Unlock()

	o.publish(change)
	return nil
}

// DeactivateOverlay removes an overlay. The deactivate hook is best-effort. While it
// runs, other activations or deactivations of the same overlay fail with ErrBusy.
func (o *Orchestrator) DeactivateOverlay(ctx context.Context, id string) error {
	o.mu.Lock()
	def, err := o.resolve(id, domain.ModeTypeOverlay)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if !slices.Contains(o.overlays, id) {
		o.mu.Unlock()
		return nil
	}
	if _, leaving := o.deactivating[id]; leaving {
		o.mu.Unlock()
		return fmt.Errorf("%w: deactivating %s", ErrBusy, id)
	}
	o.deactivating[id] = struct{}{}
	o.mu.Unlock()

	o.runBestEffortHook(ctx, id, hookDeactivate, def.Hooks.OnDeactivate)

	o.mu.Lock()
	delete(o.deactivating, id)
	o.overlays = slices.DeleteFunc(o.overlays, func(existing string) bool { return existing == id })
	change := o.commitLocked()
	o.mu.Unlock()

	o.publish(change)
	return nil
}

// ToggleOverlay activates an inactive overlay or deactivates an active one.
func (o *Orchestrator) ToggleOverlay(ctx context.Context, id string) error {
	o.mu.Lock()
	active := slices.Contains(o.overlays, id)
	o.mu.Unlock()

	if active {
		return o.DeactivateOverlay(ctx, id)
	}
	return o.ActivateOverlay(ctx, id)
}

// NotifySessionStart runs the session start hook of modeID. Sessions keep their mode id
// after the mode is unregistered, so an unknown id is skipped.
func (o *Orchestrator) NotifySessionStart(ctx context.Context, modeID string, sessionID string) {
	def, ok := o.registry.Get(modeID)
	if !ok {
		o.log.Debug().Str("mode", modeID).Str("session", sessionID).Msg("Session start for unregistered mode")
		return
	}
	o.runBestEffortHook(ctx, modeID, hookSessionStart, sessionHook(def.Hooks.OnSessionStart, sessionID))
}

// NotifySessionEnd runs the session end hook of modeID.
func (o *Orchestrator) NotifySessionEnd(ctx context.Context, modeID string, sessionID string) {
	def, ok := o.registry.Get(modeID)
	if !ok {
		o.log.Debug().Str("mode", modeID).Str("session", sessionID).Msg("Session end for unregistered mode")
		return
	}
	o.runBestEffortHook(ctx, modeID, hookSessionEnd, sessionHook(def.Hooks.OnSessionEnd, sessionID))
}

// Unregister removes a mode from the registry unless it is active or a transition is
// about to make it active.
func (o *Orchestrator) Unregister(id string) error {
	return o.registry.Unregister(id)
}

// guardUnregister runs the registry delete under the state lock, so no transition can
// claim the mode between the check and the delete.
func (o *Orchestrator) guardUnregister(id string, remove func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isActiveLocked(id) {
		return fmt.Errorf("%w: %s", ErrModeActive, id)
	}
	remove()
	return nil
}

func (o *Orchestrator) CurrentPrimaryID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.primary
}

// CurrentPrimary resolves the current primary mode through the registry.
func (o *Orchestrator) CurrentPrimary() (Definition, bool) {
	id := o.CurrentPrimaryID()
	if id == "" {
		return Definition{}, false
	}
	return o.registry.Get(id)
}

func (o *Orchestrator) IsSwitching() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.switching
}

// ActiveOverlayIDs returns overlay ids in activation order.
func (o *Orchestrator) ActiveOverlayIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.overlays...)
}

// ActiveOverlays resolves active overlay ids, dropping any that no longer resolve.
func (o *Orchestrator) ActiveOverlays() []Definition {
	ids := o.ActiveOverlayIDs()
	out := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := o.registry.Get(id); ok {
			out = append(out, def)
		}
	}
	return out
}

func (o *Orchestrator) AvailablePrimaryModes() []Definition {
	return o.registry.ListByType(domain.ModeTypePrimary)
}

func (o *Orchestrator) AvailableOverlayModes() []Definition {
	return o.registry.ListByType(domain.ModeTypeOverlay)
}

// Status returns the orchestrator state for the UI.
func (o *Orchestrator) Status() domain.ModeStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

func (o *Orchestrator) resolve(id string, want domain.ModeType) (Definition, error) {
	def, ok := o.registry.Get(id)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrModeNotFound, id)
	}
	if def.Type != want {
		return Definition{}, fmt.Errorf("%w: %s is %s, want %s", ErrInvalidModeType, id, def.Type, want)
	}
	return def, nil
}

func (o *Orchestrator) isActiveLocked(id string) bool {
	if o.primary == id || (o.switching && o.target == id) {
		return true
	}
	if _, inFlight := o.pending[id]; inFlight {
		return true
	}
	return slices.Contains(o.overlays, id)
}

func (o *Orchestrator) statusLocked() domain.ModeStatus {
	return domain.ModeStatus{
		PrimaryModeID:    o.primary,
		ActiveOverlayIDs: append([]string{}, o.overlays...),
		Switching:        o.switching,
	}
}

func (o *Orchestrator) commitLocked() statusChange {
	o.version++
	return statusChange{version: o.version, status: o.statusLocked()}
}

// publish hands a committed status to the listener. A change that lost the race to a
// newer one is dropped, so the listener never moves backwards.
func (o *Orchestrator) publish(change statusChange) {
	if o.listener == nil {
		return
	}
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if change.version <= o.delivered {
		return
	}
	o.delivered = change.version
	o.listener.ModeChanged(change.status)
}
