package bootstrap

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"tapedeck/internal/audio"
	"tapedeck/internal/config"
	"tapedeck/internal/domain"
	"tapedeck/internal/hotkey"
	"tapedeck/internal/kvstore"
	"tapedeck/internal/logging"
	"tapedeck/internal/mode"
	"tapedeck/internal/modes"
	"tapedeck/internal/ports"
	"tapedeck/internal/session"
	"tapedeck/internal/settings"
	"tapedeck/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config   config.Config
	Logger   zerolog.Logger
	Registry *mode.Registry
	Modes    *mode.Orchestrator
	Sessions *session.Tracker
	Recorder *usecase.RecordingController
	Settings *settings.Store
	Devices  *audio.PulseDevices
	Hotkeys  *hotkey.Dispatcher

	state   *kvstore.Store
	watcher *settings.Watcher
}

// Build wires all backend dependencies for the current runtime and restores the last
// used primary mode.
func Build(ctx context.Context, events ports.EventSink, window ports.WindowController) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Console: os.Stderr, FilePath: cfg.Log.File})

	state, err := kvstore.Open(cfg.Paths.StatePath)
	if err != nil {
		return Services{}, err
	}

	devices := audio.NewPulseDevices(cfg.Audio.PactlCommand, cfg.Audio.DeviceCacheTTL)
	registry := mode.NewRegistry(log)
	if err := modes.Register(registry, modes.Deps{Devices: devices, Window: window}); err != nil {
		_ = state.Close()
		return Services{}, err
	}
	orchestrator := mode.NewOrchestrator(registry, mode.Options{
		HookTimeout: cfg.Modes.HookTimeout,
		Logger:      log,
		Listener:    modes.NewStatusRelay(state, events, log),
	})

	tracker := session.NewTracker()
	tracker.OnChange(events.SessionsChanged)

	recorder := usecase.NewRecordingController(
		tracker,
		orchestrator,
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		devices,
		audio.NewFileSink(cfg.Paths.RecordingsDir),
		events,
		log,
		usecase.Config{
			Microphone: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			SystemAudio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.SystemAudioDevice,
			},
			ChunkSize:    cfg.Session.ChunkSize,
			TickInterval: cfg.Session.TickInterval,
		},
	)

	hotkeys := hotkey.NewDispatcher(orchestrator, log)
	if err := hotkeys.BindCatalog(registry); err != nil {
		events.BackendError(domain.ErrorCodeShortcut, err.Error())
	}

	settingsStore := settings.NewStore(cfg.Paths.ConfigDir)
	if _, err := settingsStore.Load(); err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		events.BackendError(domain.ErrorCodeSettings, err.Error())
	}
	watcher, err := settings.NewWatcher(settingsStore, log, events.SettingsChanged)
	if err == nil {
		err = watcher.Start()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Settings reload disabled")
		watcher = nil
	}

	if _, err := modes.Restore(ctx, orchestrator, state, cfg.Modes.DefaultMode, log); err != nil {
		log.Warn().Err(err).Msg("Failed to select startup mode")
		events.BackendError(domain.ErrorCodeModeSwitch, err.Error())
	}

	log.Info().
		Str("mode", orchestrator.CurrentPrimaryID()).
		Str("data_dir", cfg.Paths.DataDir).
		Msg("Backend ready")

	return Services{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Modes:    orchestrator,
		Sessions: tracker,
		Recorder: recorder,
		Settings: settingsStore,
		Devices:  devices,
		Hotkeys:  hotkeys,
		state:    state,
		watcher:  watcher,
	}, nil
}

// Close completes running recordings and releases files held by the graph.
func (s Services) Close(ctx context.Context) error {
	if s.Recorder != nil {
		s.Recorder.StopAll(ctx)
	}
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Stop())
	}
	if s.state != nil {
		errs = append(errs, s.state.Close())
	}
	return errors.Join(errs...)
}
