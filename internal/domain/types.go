package domain

import "time"

// ModeType separates mutually exclusive primary modes from layered overlays.
type ModeType string

const (
	ModeTypePrimary ModeType = "primary"
	ModeTypeOverlay ModeType = "overlay"
)

// Layout tells the window layer how a mode wants to be presented.
type Layout string

const (
	LayoutDefault  Layout = "default"
	LayoutFloating Layout = "floating"
)

// Capabilities declares the external resources a mode requires.
type Capabilities struct {
	SystemAudio bool `json:"systemAudio"`
	Microphone  bool `json:"microphone"`
	AI          bool `json:"ai"`
	Markers     bool `json:"markers"`
}

// NeedsCapture reports whether any audio input is required.
func (c Capabilities) NeedsCapture() bool {
	return c.SystemAudio || c.Microphone
}

// SessionState models the recording session lifecycle.
type SessionState string

const (
	SessionStateCreated   SessionState = "created"
	SessionStateRecording SessionState = "recording"
	SessionStatePaused    SessionState = "paused"
	SessionStateCompleted SessionState = "completed"
	SessionStateError     SessionState = "error"
)

// Terminal reports whether no further transitions are expected.
func (s SessionState) Terminal() bool {
	return s == SessionStateCompleted || s == SessionStateError
}

// SessionInfo is one tracked recording session.
type SessionInfo struct {
	ID        string        `json:"id"`
	ModeID    string        `json:"modeId"`
	State     SessionState  `json:"state"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Title     string        `json:"title,omitempty"`
}

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeModeSwitch  ErrorCode = "mode_switch"
	ErrorCodeOverlay     ErrorCode = "overlay"
	ErrorCodeAudioStart  ErrorCode = "audio_start"
	ErrorCodeAudioStop   ErrorCode = "audio_stop"
	ErrorCodeAudioStream ErrorCode = "audio_stream"
	ErrorCodeSettings    ErrorCode = "settings"
	ErrorCodeShortcut    ErrorCode = "shortcut"
)

// ModeStatus is the orchestrator state as seen by the UI.
type ModeStatus struct {
	PrimaryModeID    string   `json:"primaryModeId"`
	ActiveOverlayIDs []string `json:"activeOverlayIds"`
	Switching        bool     `json:"switching"`
}

// SessionsSnapshot is the tracker state as seen by the UI.
type SessionsSnapshot struct {
	Sessions         []SessionInfo `json:"sessions"`
	CurrentSessionID string        `json:"currentSessionId,omitempty"`
}

// AudioDevice is an input source reported by the device service.
type AudioDevice struct {
	Name    string `json:"name"`
	Driver  string `json:"driver,omitempty"`
	State   string `json:"state,omitempty"`
	Monitor bool   `json:"monitor"`
}

// Settings holds the persisted user preferences.
type Settings struct {
	Language string `json:"language" toml:"language"`
	Theme    string `json:"theme" toml:"theme"`
}
