package cli_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/browserhost/internal/cli"
	"github.com/macropower/browserhost/pkg/settings"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func configPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "inlays.yaml")
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	path := configPath(t)

	out, err := execute(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"inlays"`)
	assert.Contains(t, out, `"clickThrough"`)
}

func TestConfigWrite(t *testing.T) {
	t.Parallel()

	path := configPath(t)

	out, err := execute(t, "config", "write", "--check", "--config", path)
	require.ErrorIs(t, err, cli.ErrNotFormatted)
	assert.Contains(t, out, "+apiVersion")
	assert.NoFileExists(t, path)

	_, err = execute(t, "config", "write", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err = execute(t, "config", "write", "--check", "--config", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "inlays: []")
}

func TestConfigShow_Invalid(t *testing.T) {
	t.Parallel()

	path := configPath(t)
	require.NoError(t, os.WriteFile(path, []byte("inlays: {"), 0o600))

	_, err := execute(t, "config", "show", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestInlays(t *testing.T) {
	t.Parallel()

	path := configPath(t)

	out, err := execute(t, "inlays", "add", "--config", path,
		"--name", "Timers", "--url", "https://example.com/timers", "--click-through")
	require.NoError(t, err)

	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = execute(t, "inlays", "add", "--config", path, "--name", "Chat")
	require.NoError(t, err)

	out, err = execute(t, "inlays", "list", "--config", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: "+id)
	assert.Contains(t, out, "name: Timers")
	assert.Contains(t, out, "clickThrough: true")
	assert.Contains(t, out, "name: Chat")

	tcs := map[string]struct {
		want    []string
		notWant []string
		args    []string
	}{
		"table": {
			args: []string{},
			want: []string{"ID", "CLICK THROUGH", "Timers", "Chat", "https://example.com/timers"},
		},
		"filter": {
			args:    []string{"--filter", "clickThrough && urlHost(url) == 'example.com'"},
			want:    []string{"Timers"},
			notWant: []string{"Chat"},
		},
		"search": {
			args:    []string{"--search", "cht"},
			want:    []string{"Chat"},
			notWant: []string{"Timers"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"inlays", "list", "--config", path}, tc.args...)

			out, err := execute(t, args...)
			require.NoError(t, err)

			for _, want := range tc.want {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tc.notWant {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestInlays_Edit(t *testing.T) {
	t.Parallel()

	path := configPath(t)

	out, err := execute(t, "inlays", "add", "--config", path)
	require.NoError(t, err)

	id := strings.TrimSpace(out)

	_, err = execute(t, "inlays", "rename", id, "Map", "--config", path)
	require.NoError(t, err)

	_, err = execute(t, "inlays", "set", id, "--config", path,
		"--url", "https://example.com/map", "--locked", "--navigate")
	require.NoError(t, err)

	_, err = execute(t, "inlays", "reload", id, "--config", path)
	require.NoError(t, err)

	out, err = execute(t, "inlays", "list", "--config", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Map")
	assert.Contains(t, out, "url: https://example.com/map")
	assert.Contains(t, out, "locked: true")

	_, err = execute(t, "inlays", "remove", id, "--config", path)
	require.ErrorIs(t, err, cli.ErrNotConfirmed, "stdin is not a terminal")

	_, err = execute(t, "inlays", "remove", id, "--yes", "--config", path)
	require.NoError(t, err)

	out, err = execute(t, "inlays", "list", "--config", path, "-o", "yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, "Map")
}

func TestInlays_Errors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		msg  string
		args []string
	}{
		"unknown inlay": {
			args: []string{"inlays", "reload", "missing"},
			err:  settings.ErrInlayNotFound,
		},
		"bad filter": {
			args: []string{"inlays", "list", "--filter", "name"},
			msg:  "filter",
		},
		"bad output": {
			args: []string{"inlays", "list", "-o", "xml"},
			err:  cli.ErrOutputFormat,
		},
		"missing args": {
			args: []string{"inlays", "rename", "only-id"},
			msg:  "accepts 2 arg(s)",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"--config", configPath(t)}, tc.args...)

			_, err := execute(t, args...)
			require.Error(t, err)

			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			}
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		want string
	}{
		"usage": {
			err:  fmt.Errorf("unknown flag: --nope"),
			want: "--help",
		},
		"not found": {
			err:  fmt.Errorf("reload: %w", settings.ErrInlayNotFound),
			want: "browserhost inlays list",
		},
		"not confirmed": {
			err:  cli.ErrNotConfirmed,
			want: "--yes",
		},
		"no hint": {
			err: fmt.Errorf("something else"),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cli.ErrorHandler(&buf, fang.Styles{}, tc.err)

			assert.Contains(t, buf.String(), tc.err.Error())
			if tc.want != "" {
				assert.Contains(t, buf.String(), tc.want)
			} else {
				assert.NotContains(t, buf.String(), "Try")
			}
		})
	}
}
