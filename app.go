package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"tapedeck/internal/bootstrap"
	"tapedeck/internal/domain"
	"tapedeck/internal/hotkey"
	"tapedeck/internal/mode"
	"tapedeck/internal/usecase"
)

const (
	eventMode     = "tapedeck:mode"
	eventSessions = "tapedeck:sessions"
	eventSettings = "tapedeck:settings"
	eventError    = "tapedeck:error"
)

// ModeView is a mode definition as the frontend sees it.
type ModeView struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Icon         string              `json:"icon"`
	Type         domain.ModeType     `json:"type"`
	Layout       domain.Layout       `json:"layout"`
	Kind         string              `json:"kind"`
	Capabilities domain.Capabilities `json:"capabilities"`
	Enabled      bool                `json:"enabled"`
	Shortcut     string              `json:"shortcut,omitempty"`
}

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.Services
	ready    bool
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(ctx, a, &wailsWindow{app: a})
	if err != nil {
		a.bootErr = err
		a.BackendError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.ready = true
}

func (a *App) shutdown(ctx context.Context) {
	if !a.ready {
		return
	}
	if err := a.services.Close(ctx); err != nil {
		a.services.Logger.Warn().Err(err).Msg("Shutdown incomplete")
	}
}

// SwitchMode makes id the active primary mode.
func (a *App) SwitchMode(id string) (domain.ModeStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.ModeStatus{}, err
	}
	if err := a.services.Modes.SwitchPrimaryMode(a.ctx, id); err != nil {
		a.BackendError(domain.ErrorCodeModeSwitch, err.Error())
		return a.services.Modes.Status(), err
	}
	return a.services.Modes.Status(), nil
}

// ToggleOverlay flips an overlay mode.
func (a *App) ToggleOverlay(id string) (domain.ModeStatus, error) {
	return a.overlayAction(id, a.services.Modes.ToggleOverlay)
}

func (a *App) ActivateOverlay(id string) (domain.ModeStatus, error) {
	return a.overlayAction(id, a.services.Modes.ActivateOverlay)
}

func (a *App) DeactivateOverlay(id string) (domain.ModeStatus, error) {
	return a.overlayAction(id, a.services.Modes.DeactivateOverlay)
}

// GetModes lists every registered mode.
func (a *App) GetModes() []ModeView {
	if !a.ready {
		return []ModeView{}
	}
	defs := a.services.Registry.List()
	views := make([]ModeView, 0, len(defs))
	for _, def := range defs {
		views = append(views, toModeView(def))
	}
	return views
}

func (a *App) GetModeStatus() domain.ModeStatus {
	if !a.ready {
		return domain.ModeStatus{ActiveOverlayIDs: []string{}}
	}
	return a.services.Modes.Status()
}

// StartRecording opens a session under the current primary mode.
func (a *App) StartRecording(title string) (domain.SessionInfo, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionInfo{}, err
	}
	return a.services.Recorder.Start(a.ctx, title)
}

func (a *App) PauseRecording(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Recorder.Pause(id)
}

func (a *App) ResumeRecording(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Recorder.Resume(id)
}

func (a *App) StopRecording(id string) (domain.SessionInfo, error) {
	if err := a.requireReady(); err != nil {
		return domain.SessionInfo{}, err
	}
	return a.services.Recorder.Stop(a.ctx, id)
}

// AbortRecording discards a session. Aborting a session that already ended is not an error.
func (a *App) AbortRecording(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.services.Recorder.Abort(a.ctx, id)
	if errors.Is(err, usecase.ErrNoActiveSession) {
		a.services.Sessions.Remove(id)
		return nil
	}
	return err
}

func (a *App) SetCurrentSession(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Sessions.SetCurrent(id)
}

func (a *App) GetSessions() domain.SessionsSnapshot {
	if !a.ready {
		return domain.SessionsSnapshot{Sessions: []domain.SessionInfo{}}
	}
	return a.services.Sessions.Snapshot()
}

func (a *App) GetSettings() (domain.Settings, error) {
	if err := a.requireReady(); err != nil {
		return domain.Settings{}, err
	}
	return a.services.Settings.Load()
}

// SaveSettings persists settings. The file watcher broadcasts the change.
func (a *App) SaveSettings(settings domain.Settings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Settings.Save(settings); err != nil {
		a.BackendError(domain.ErrorCodeSettings, err.Error())
		return err
	}
	return nil
}

func (a *App) ListAudioSources() ([]domain.AudioDevice, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Devices.ListAudioSources(a.ctx)
}

func (a *App) ListMicrophones() ([]domain.AudioDevice, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Devices.ListMicrophones(a.ctx)
}

// HandleShortcut receives a key combination captured by the frontend.
func (a *App) HandleShortcut(combo string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	err := a.services.Hotkeys.Dispatch(a.ctx, combo)
	if errors.Is(err, hotkey.ErrNoBinding) {
		return nil
	}
	if err != nil {
		a.BackendError(domain.ErrorCodeShortcut, err.Error())
	}
	return err
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if !a.ready {
		return map[string]string{}
	}

	cfg := a.services.Config
	return map[string]string{
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
		"systemAudio":      cfg.Audio.SystemAudioDevice,
		"recordingsDir":    cfg.Paths.RecordingsDir,
		"defaultMode":      cfg.Modes.DefaultMode,
		"logLevel":         cfg.Log.Level,
	}
}

func (a *App) overlayAction(id string, action func(ctx context.Context, id string) error) (domain.ModeStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.ModeStatus{}, err
	}
	if err := action(a.ctx, id); err != nil {
		a.BackendError(domain.ErrorCodeOverlay, err.Error())
		return a.services.Modes.Status(), err
	}
	return a.services.Modes.Status(), nil
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// ModeChanged emits orchestrator state to the frontend.
func (a *App) ModeChanged(status domain.ModeStatus) {
	a.emit(eventMode, status)
}

func (a *App) SessionsChanged(snapshot domain.SessionsSnapshot) {
	a.emit(eventSessions, snapshot)
}

func (a *App) SettingsChanged(settings domain.Settings) {
	a.emit(eventSettings, settings)
}

// BackendError emits backend errors to the UI.
func (a *App) BackendError(code domain.ErrorCode, detail string) {
	a.emit(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func (a *App) emit(event string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, payload)
}

func toModeView(def mode.Definition) ModeView {
	return ModeView{
		ID:           def.ID,
		Name:         def.Name,
		Description:  def.Description,
		Icon:         def.Icon,
		Type:         def.Type,
		Layout:       def.Layout,
		Kind:         string(def.Kind()),
		Capabilities: def.Capabilities,
		Enabled:      def.Enabled,
		Shortcut:     def.Shortcut,
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeModeSwitch:
		return withDetail("Could not switch mode", detail)
	case domain.ErrorCodeOverlay:
		return withDetail("Overlay could not be changed", detail)
	case domain.ErrorCodeAudioStart:
		return "Could not start recording"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeSettings:
		return "Settings issue"
	case domain.ErrorCodeShortcut:
		return "Shortcut issue"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

func withDetail(prefix string, detail string) string {
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}

// wailsWindow pins the window above other apps while a floating overlay is active.
type wailsWindow struct {
	app *App
}

func (w *wailsWindow) SetFloating(_ context.Context, floating bool) error {
	if w.app.ctx == nil {
		return fmt.Errorf("window is not available")
	}
	runtime.WindowSetAlwaysOnTop(w.app.ctx, floating)
	return nil
}
