package settings

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"tapedeck/internal/domain"
)

// Watcher reloads the settings file when it is edited outside the app.
// It watches the directory because saves replace the file via rename.
type Watcher struct {
	store    *Store
	onChange func(domain.Settings)
	log      zerolog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	running bool
}

func NewWatcher(store *Store, log zerolog.Logger, onChange func(domain.Settings)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:    store,
		onChange: onChange,
		log:      log.With().Str("component", "settings_watcher").Logger(),
		debounce: 100 * time.Millisecond,
		watcher:  fsw,
		done:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.store.dir); err != nil {
		return err
	}
	w.running = true
	go w.loop()
	return nil
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.store.Path())
	var timer *time.Timer

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Settings watcher error")
		}
	}
}

func (w *Watcher) reload() {
	settings, err := w.store.Load()
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.store.Path()).Msg("Failed to reload settings")
		return
	}
	w.log.Info().Str("path", w.store.Path()).Msg("Settings reloaded")
	if w.onChange != nil {
		w.onChange(settings)
	}
}
