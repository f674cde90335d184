package mode

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tapedeck/internal/domain"
)

// Registry is the catalog of mode definitions. It never consults orchestrator state
// directly; the orchestrator installs a guard that Unregister deletes through.
type Registry struct {
	log      zerolog.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	modes map[string]Definition
	guard func(id string, remove func()) error
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		log:      log.With().Str("component", "mode_registry").Logger(),
		validate: validator.New(),
		modes:    make(map[string]Definition),
	}
}

// Register inserts or overwrites a definition. Overwrites are logged, not rejected.
func (r *Registry) Register(def Definition) error {
	def.ID = strings.TrimSpace(def.ID)
	if def.Layout == "" {
		def.Layout = domain.LayoutDefault
	}
	if err := r.validate.Struct(def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if def.IsPrimary() && def.Shortcut != "" {
		return fmt.Errorf("%w: primary mode %q cannot declare a shortcut", ErrInvalidDefinition, def.ID)
	}

	r.mu.Lock()
	_, existed := r.modes[def.ID]
	r.modes[def.ID] = def
	r.mu.Unlock()

	if existed {
		r.log.Warn().Str("mode", def.ID).Msg("Mode registered twice, previous definition replaced")
	}
	return nil
}

// Unregister removes a definition. Removing an unknown id is a no-op; removing an
// active mode fails with ErrModeActive.
func (r *Registry) Unregister(id string) error {
	r.mu.RLock()
	guard := r.guard
	r.mu.RUnlock()

	remove := func() {
		r.mu.Lock()
		delete(r.modes, id)
		r.mu.Unlock()
	}
	if guard == nil {
		remove()
		return nil
	}
	return guard(id, remove)
}

func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.modes[id]
	return def, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns a snapshot of all definitions ordered by id.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defs := lo.Values(r.modes)
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

func (r *Registry) ListByType(modeType domain.ModeType) []Definition {
	return lo.Filter(r.List(), func(def Definition, _ int) bool {
		return def.Type == modeType
	})
}

// SetEnabled toggles the only mutable field of a registered definition.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.modes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrModeNotFound, id)
	}
	def.Enabled = enabled
	r.modes[id] = def
	return nil
}

// setUnregisterGuard installs the function that decides whether an id may be removed.
// The guard must call remove itself; it never runs with the registry lock held.
func (r *Registry) setUnregisterGuard(guard func(id string, remove func()) error) {
	r.mu.Lock()
	r.guard = guard
	r.mu.Unlock()
}
