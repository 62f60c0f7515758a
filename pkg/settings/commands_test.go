package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/browserhost/pkg/command"
	"github.com/macropower/browserhost/pkg/settings"
)

func TestRegisterCommands(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, stored())
	d := command.NewDispatcher()

	require.NoError(t, m.RegisterCommands(d))
	help := d.Help()
	require.Len(t, help, 1)
	assert.Equal(t, settings.CommandName, help[0].Name)
	assert.Equal(t, settings.CommandHelp, help[0].HelpMessage)

	err := m.RegisterCommands(d)
	require.ErrorIs(t, err, command.ErrDuplicateCommand)
}

func TestUnregisterCommands(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, stored())
	d := command.NewDispatcher()

	require.NoError(t, m.RegisterCommands(d))
	m.UnregisterCommands(d)

	assert.Empty(t, d.Help())
	require.ErrorIs(t, d.Dispatch(t.Context(), settings.CommandName), command.ErrUnknownCommand)

	require.NoError(t, m.RegisterCommands(d), "can register again")
}

func TestCommand_Toggle(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(t, stored())
	d := command.NewDispatcher()
	require.NoError(t, m.RegisterCommands(d))

	require.NoError(t, d.Dispatch(t.Context(), "/pbrowser"))
	assert.True(t, m.IsOpen())

	require.NoError(t, d.Dispatch(t.Context(), "/PBROWSER"))
	assert.False(t, m.IsOpen())

	require.NoError(t, d.Dispatch(t.Context(), "/pbrowser open"))
	require.NoError(t, d.Dispatch(t.Context(), "/pbrowser open"))
	assert.True(t, m.IsOpen())

	require.NoError(t, d.Dispatch(t.Context(), "/pbrowser close"))
	assert.False(t, m.IsOpen())
}

func TestCommand_Inlays(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		line string
		want []string
	}{
		"add": {
			line: "/pbrowser add",
			want: []string{"InlayAdded(id-1)"},
		},
		"reload": {
			line: "/pbrowser reload a",
			want: []string{"InlayNavigated(a)"},
		},
		"debug": {
			line: "/pbrowser debug a",
			want: []string{"InlayDebugged(a)"},
		},
		"remove": {
			line: "/pbrowser remove 'a'",
			want: []string{"InlayRemoved(a)"},
		},
		"unknown inlay": {
			line: "/pbrowser remove b",
			err:  settings.ErrInlayNotFound,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, _, rec := newManager(t, stored("a"))
			rec.reset()

			d := command.NewDispatcher()
			require.NoError(t, m.RegisterCommands(d))

			err := d.Dispatch(t.Context(), tc.line)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Empty(t, rec.strings())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, rec.strings())
		})
	}
}

func TestCommand_Usage(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"unknown subcommand": "/pbrowser frobnicate",
		"missing id":         "/pbrowser remove",
		"extra args":         "/pbrowser debug a b",
	}

	for name, line := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, _, rec := newManager(t, stored("a"))
			rec.reset()

			d := command.NewDispatcher()
			require.NoError(t, m.RegisterCommands(d))

			err := d.Dispatch(t.Context(), line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "usage: /pbrowser")
			assert.Empty(t, rec.strings())
		})
	}
}
