package modes

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"tapedeck/internal/domain"
	"tapedeck/internal/kvstore"
	"tapedeck/internal/mode"
	"tapedeck/internal/ports"
)

// Switcher is the part of the orchestrator used to restore the last mode.
type Switcher interface {
	SwitchPrimaryMode(ctx context.Context, id string) error
}

// StatusRelay forwards orchestrator changes to the UI and remembers the primary mode
// so the next launch can restore it.
type StatusRelay struct {
	kv     ports.KeyValueStore
	events ports.EventSink
	log    zerolog.Logger

	mu   sync.Mutex
	last string
}

var _ mode.Listener = (*StatusRelay)(nil)

func NewStatusRelay(kv ports.KeyValueStore, events ports.EventSink, log zerolog.Logger) *StatusRelay {
	return &StatusRelay{kv: kv, events: events, log: log.With().Str("component", "mode_relay").Logger()}
}

func (r *StatusRelay) ModeChanged(status domain.ModeStatus) {
	if r.events != nil {
		r.events.ModeChanged(status)
	}
	if r.kv == nil || status.PrimaryModeID == "" {
		return
	}

	r.mu.Lock()
	changed := status.PrimaryModeID != r.last
	r.last = status.PrimaryModeID
	r.mu.Unlock()
	if !changed {
		return
	}
	if err := r.kv.Set(context.Background(), kvstore.KeyLastMode, status.PrimaryModeID); err != nil {
		r.log.Warn().Err(err).Str("mode", status.PrimaryModeID).Msg("Failed to remember last mode")
	}
}

// Restore switches to the remembered primary mode, falling back to fallback when nothing
// was stored or the stored mode no longer exists. It returns the mode it settled on.
func Restore(ctx context.Context, switcher Switcher, kv ports.KeyValueStore, fallback string, log zerolog.Logger) (string, error) {
	if kv != nil {
		stored, ok, err := kv.Get(ctx, kvstore.KeyLastMode)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to read last mode")
		case ok && stored != "":
			err := switcher.SwitchPrimaryMode(ctx, stored)
			if err == nil {
				return stored, nil
			}
			if !errors.Is(err, mode.ErrModeNotFound) && !errors.Is(err, mode.ErrInvalidModeType) {
				return "", err
			}
			log.Info().Str("mode", stored).Msg("Remembered mode is gone, using default")
		}
	}
	if fallback == "" {
		return "", nil
	}
	if err := switcher.SwitchPrimaryMode(ctx, fallback); err != nil {
		return "", err
	}
	return fallback, nil
}
