// Package mode holds the mode catalog and the state machine that decides which primary
// mode is active and which overlays are layered on top of it.
package mode

import (
	"context"

	"tapedeck/internal/domain"
)

// Kind identifies the view family a mode belongs to.
type Kind string

const (
	KindMeeting     Kind = "meeting"
	KindInterview   Kind = "interview"
	KindInputMethod Kind = "input_method"
)

// Config is the per-kind payload carried by a definition.
type Config interface {
	Kind() Kind
}

// MeetingConfig configures a multi-speaker meeting recording.
type MeetingConfig struct {
	MarkersEnabled bool
	AutoTitle      bool
}

func (MeetingConfig) Kind() Kind { return KindMeeting }

// InterviewRole is the side of the interview the user is on.
type InterviewRole string

const (
	RoleInterviewer InterviewRole = "interviewer"
	RoleInterviewee InterviewRole = "interviewee"
)

// InterviewConfig configures an interview recording from one side of the table.
type InterviewConfig struct {
	Role            InterviewRole
	QuestionPrompts bool
}

func (InterviewConfig) Kind() Kind { return KindInterview }

// InputMethodConfig configures the floating dictation input.
type InputMethodConfig struct {
	PasteOnFinish bool
}

func (InputMethodConfig) Kind() Kind { return KindInputMethod }

// Hooks are optional lifecycle callbacks. Each is bounded by the orchestrator's hook timeout.
type Hooks struct {
	OnActivate     func(ctx context.Context) error
	OnDeactivate   func(ctx context.Context) error
	OnSessionStart func(ctx context.Context, sessionID string) error
	OnSessionEnd   func(ctx context.Context, sessionID string) error
}

// Definition is the static descriptor of a mode.
type Definition struct {
	ID           string              `validate:"required,max=64"`
	Name         string              `validate:"required"`
	Description  string
	Icon         string
	Type         domain.ModeType     `validate:"required,oneof=primary overlay"`
	Layout       domain.Layout       `validate:"omitempty,oneof=default floating"`
	Capabilities domain.Capabilities
	Enabled      bool
	Shortcut     string
	Hooks        Hooks               `validate:"-"`
	Config       Config              `validate:"-"`
}

// IsPrimary reports whether the mode is mutually exclusive with other primaries.
func (d Definition) IsPrimary() bool {
	return d.Type == domain.ModeTypePrimary
}

// IsOverlay reports whether the mode can be layered on top of a primary.
func (d Definition) IsOverlay() bool {
	return d.Type == domain.ModeTypeOverlay
}

// Kind returns the config kind, or "" when no config is attached.
func (d Definition) Kind() Kind {
	if d.Config == nil {
		return ""
	}
	return d.Config.Kind()
}
