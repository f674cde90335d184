// Package modes declares the modes shipped with the application.
package modes

import (
	"context"
	"fmt"

	"tapedeck/internal/domain"
	"tapedeck/internal/mode"
	"tapedeck/internal/ports"
)

const (
	Meeting     = "meeting"
	Interviewer = "interviewer"
	Interviewee = "interviewee"
	InputMethod = "input-method"

	InputMethodShortcut = "Ctrl+Space"
)

// DeviceRefresher drops cached device lists.
type DeviceRefresher interface {
	Refresh(ctx context.Context) error
}

// Deps are the collaborators built-in hooks act on. Nil fields disable the hooks that
// need them.
type Deps struct {
	Devices DeviceRefresher
	Window  ports.WindowController
}

// Builtin returns the built-in definitions in display order.
func Builtin(deps Deps) []mode.Definition {
	return []mode.Definition{
		meeting(deps),
		interview(Interviewer, "Interviewer", "Run an interview and capture your questions", mode.RoleInterviewer),
		interview(Interviewee, "Interviewee", "Capture your answers while being interviewed", mode.RoleInterviewee),
		inputMethod(deps),
	}
}

// Register adds every built-in definition to registry.
func Register(registry *mode.Registry, deps Deps) error {
	for _, def := range Builtin(deps) {
		if err := registry.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.ID, err)
		}
	}
	return nil
}

func meeting(deps Deps) mode.Definition {
	def := mode.Definition{
		ID:          Meeting,
		Name:        "Meeting",
		Description: "Record both sides of a call with markers",
		Icon:        "users",
		Type:        domain.ModeTypePrimary,
		Layout:      domain.LayoutDefault,
		Capabilities: domain.Capabilities{
			SystemAudio: true,
			Microphone:  true,
			Markers:     true,
		},
		Enabled: true,
		Config:  mode.MeetingConfig{MarkersEnabled: true, AutoTitle: true},
	}
	// Headsets are often plugged in right before a call.
	if deps.Devices != nil {
		def.Hooks.OnActivate = deps.Devices.Refresh
	}
	return def
}

func interview(id, name, description string, role mode.InterviewRole) mode.Definition {
	return mode.Definition{
		ID:          id,
		Name:        name,
		Description: description,
		Icon:        "mic",
		Type:        domain.ModeTypePrimary,
		Layout:      domain.LayoutDefault,
		Capabilities: domain.Capabilities{
			Microphone: true,
			AI:         true,
		},
		Enabled: true,
		Config:  mode.InterviewConfig{Role: role, QuestionPrompts: role == mode.RoleInterviewer},
	}
}

func inputMethod(deps Deps) mode.Definition {
	def := mode.Definition{
		ID:           InputMethod,
		Name:         "Input Method",
		Description:  "Floating dictation window over any app",
		Icon:         "keyboard",
		Type:         domain.ModeTypeOverlay,
		Layout:       domain.LayoutFloating,
		Capabilities: domain.Capabilities{Microphone: true, AI: true},
		Enabled:      true,
		Shortcut:     InputMethodShortcut,
		Config:       mode.InputMethodConfig{PasteOnFinish: true},
	}
	if deps.Window != nil {
		def.Hooks.OnActivate = func(ctx context.Context) error {
			return deps.Window.SetFloating(ctx, true)
		}
		def.Hooks.OnDeactivate = func(ctx context.Context) error {
			return deps.Window.SetFloating(ctx, false)
		}
	}
	return def
}
