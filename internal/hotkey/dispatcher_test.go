package hotkey

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapedeck/internal/domain"
	"tapedeck/internal/mode"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Ctrl+Space":         "ctrl+space",
		"space+control":      "ctrl+space",
		"Shift + Cmd + K":    "shift+super+k",
		"alt+ctrl+shift+f12": "ctrl+alt+shift+f12",
		"Option+Win+Return":  "alt+super+return",
	}
	for input, want := range cases {
		got, err := Normalize(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "ctrl+shift", "a+b", "   "} {
		_, err := Normalize(input)
		assert.ErrorIs(t, err, ErrInvalidShortcut, input)
	}
}

func TestDispatchTogglesBoundOverlay(t *testing.T) {
	t.Parallel()

	toggler := &fakeToggler{}
	d := NewDispatcher(toggler, zerolog.Nop())
	require.NoError(t, d.Bind("Ctrl+Space", "input-method"))

	require.NoError(t, d.Dispatch(context.Background(), "space+control"))
	assert.Equal(t, []string{"input-method"}, toggler.calls)

	err := d.Dispatch(context.Background(), "ctrl+k")
	assert.ErrorIs(t, err, ErrNoBinding)
	assert.Len(t, toggler.calls, 1)
}

func TestBindRejectsDuplicateShortcut(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&fakeToggler{}, zerolog.Nop())
	require.NoError(t, d.Bind("Ctrl+Space", "input-method"))
	require.NoError(t, d.Bind("control+space", "input-method"))

	err := d.Bind("space+ctrl", "notes")
	assert.ErrorIs(t, err, ErrDuplicateBinding)
}

func TestBindCatalogSkipsDisabledAndConflicting(t *testing.T) {
	t.Parallel()

	registry := mode.NewRegistry(zerolog.Nop())
	require.NoError(t, registry.Register(overlay("input-method", "Ctrl+Space", true)))
	require.NoError(t, registry.Register(overlay("notes", "Alt+N", false)))
	require.NoError(t, registry.Register(overlay("scratch", "space+ctrl", true)))
	require.NoError(t, registry.Register(overlay("silent", "", true)))

	d := NewDispatcher(&fakeToggler{}, zerolog.Nop())
	err := d.BindCatalog(registry)
	assert.ErrorIs(t, err, ErrDuplicateBinding)
	assert.Equal(t, []string{"ctrl+space"}, d.Bindings())
}

func TestBindCatalogDrivesOrchestrator(t *testing.T) {
	t.Parallel()

	registry := mode.NewRegistry(zerolog.Nop())
	require.NoError(t, registry.Register(overlay("input-method", "Ctrl+Space", true)))
	orch := mode.NewOrchestrator(registry, mode.Options{Logger: zerolog.Nop()})

	d := NewDispatcher(orch, zerolog.Nop())
	require.NoError(t, d.BindCatalog(registry))

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "Ctrl+Space"))
	assert.Equal(t, []string{"input-method"}, orch.ActiveOverlayIDs())
	require.NoError(t, d.Dispatch(ctx, "Ctrl+Space"))
	assert.Empty(t, orch.ActiveOverlayIDs())
}

func overlay(id, shortcut string, enabled bool) mode.Definition {
	return mode.Definition{
		ID:       id,
		Name:     id,
		Type:     domain.ModeTypeOverlay,
		Enabled:  enabled,
		Shortcut: shortcut,
	}
}

type fakeToggler struct {
	calls []string
}

func (f *fakeToggler) ToggleOverlay(_ context.Context, id string) error {
	f.calls = append(f.calls, id)
	return nil
}
