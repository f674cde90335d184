package ports

import (
	"context"
	"io"

	"tapedeck/internal/domain"
)

// AudioConfig describes how an input device should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// DeviceLister enumerates capture devices.
type DeviceLister interface {
	ListAudioSources(ctx context.Context) ([]domain.AudioDevice, error)
	ListMicrophones(ctx context.Context) ([]domain.AudioDevice, error)
}

// RecordingSink stores captured audio for a session.
type RecordingSink interface {
	Open(sessionID string) (io.WriteCloser, error)
}

// SettingsStore persists user preferences.
type SettingsStore interface {
	Load() (domain.Settings, error)
	Save(settings domain.Settings) error
}

// KeyValueStore is durable string storage.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// WindowController applies mode layouts to the application window.
type WindowController interface {
	SetFloating(ctx context.Context, floating bool) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	ModeChanged(status domain.ModeStatus)
	SessionsChanged(snapshot domain.SessionsSnapshot)
	SettingsChanged(settings domain.Settings)
	BackendError(code domain.ErrorCode, detail string)
}
