// Package hotkey maps global key combinations to overlay toggles.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tapedeck/internal/domain"
	"tapedeck/internal/mode"
)

var (
	ErrNoBinding        = errors.New("no overlay bound to shortcut")
	ErrInvalidShortcut  = errors.New("invalid shortcut")
	ErrDuplicateBinding = errors.New("shortcut already bound")
)

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"cmd":     "super",
	"command": "super",
	"super":   "super",
	"meta":    "super",
	"win":     "super",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
}

var modifierOrder = []string{"ctrl", "alt", "shift", "super"}

// Toggler flips an overlay on or off.
type Toggler interface {
	ToggleOverlay(ctx context.Context, id string) error
}

// Catalog lists the overlays that may carry shortcuts.
type Catalog interface {
	ListByType(modeType domain.ModeType) []mode.Definition
}

// Dispatcher routes captured key combinations to overlay toggles.
type Dispatcher struct {
	toggler Toggler
	log     zerolog.Logger

	mu       sync.RWMutex
	bindings map[string]string
}

func NewDispatcher(toggler Toggler, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		toggler:  toggler,
		log:      log.With().Str("component", "hotkey").Logger(),
		bindings: make(map[string]string),
	}
}

// Normalize canonicalizes a combination such as "Ctrl+Space" or "space + control" so
// equivalent spellings compare equal. Exactly one non-modifier key is required.
func Normalize(shortcut string) (string, error) {
	parts := strings.FieldsFunc(strings.ToLower(shortcut), func(r rune) bool {
		return r == '+' || r == ' '
	})

	mods := make(map[string]struct{}, len(parts))
	key := ""
	for _, part := range parts {
		if canonical, ok := modifierAliases[part]; ok {
			mods[canonical] = struct{}{}
			continue
		}
		if key != "" {
			return "", fmt.Errorf("%w: %q has more than one key", ErrInvalidShortcut, shortcut)
		}
		key = part
	}
	if key == "" {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidShortcut, shortcut)
	}

	ordered := lo.Filter(modifierOrder, func(m string, _ int) bool {
		_, ok := mods[m]
		return ok
	})
	return strings.Join(append(ordered, key), "+"), nil
}

// Bind maps shortcut to overlay id.
func (d *Dispatcher) Bind(shortcut string, id string) error {
	combo, err := Normalize(shortcut)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.bindings[combo]; ok && existing != id {
		return fmt.Errorf("%w: %s is used by %s", ErrDuplicateBinding, combo, existing)
	}
	d.bindings[combo] = id
	return nil
}

// BindCatalog replaces all bindings with the shortcuts of enabled overlays. Conflicts
// are logged and skipped so one bad definition does not disable the rest.
func (d *Dispatcher) BindCatalog(catalog Catalog) error {
	d.mu.Lock()
	d.bindings = make(map[string]string)
	d.mu.Unlock()

	var errs []error
	for _, def := range catalog.ListByType(domain.ModeTypeOverlay) {
		if def.Shortcut == "" || !def.Enabled {
			continue
		}
		if err := d.Bind(def.Shortcut, def.ID); err != nil {
			d.log.Warn().Err(err).Str("mode", def.ID).Msg("Skipping overlay shortcut")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch toggles the overlay bound to combo.
func (d *Dispatcher) Dispatch(ctx context.Context, combo string) error {
	normalized, err := Normalize(combo)
	if err != nil {
		return err
	}

	d.mu.RLock()
	id, ok := d.bindings[normalized]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBinding, normalized)
	}

	d.log.Debug().Str("shortcut", normalized).Str("mode", id).Msg("Shortcut pressed")
	return d.toggler.ToggleOverlay(ctx, id)
}

// Bindings returns the bound shortcuts in sorted order.
func (d *Dispatcher) Bindings() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := lo.Keys(d.bindings)
	slices.Sort(keys)
	return keys
}
