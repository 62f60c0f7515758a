package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/browserhost/pkg/ui/theme"
)

func newTestFrame(state *frameState) *frame {
	if state.collapsed == nil {
		state.collapsed = make(map[string]bool)
	}
	if state.width == 0 {
		state.width = 60
	}

	return newFrame(theme.Default, state)
}

func plain(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, ansi.Strip(l))
	}

	return out
}

func TestFrame_Sections(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{focus: -1})

	open := true
	f.Begin("Settings##BrowserHost", &open)
	f.BeginChild("inlays", 2)
	f.CollapsingHeader("Timers###header-a", nil)
	f.EndChild()
	f.Separator()
	f.Button("Add new inlay")
	f.End()

	assert.Equal(t, []string{" Settings  esc " + theme.CloseIcon}, plain(f.title))
	assert.Equal(t, []string{theme.Expanded + " Timers"}, plain(f.body))
	require.Len(t, f.footer, 2)
	assert.Equal(t, "[ Add new inlay ]", ansi.Strip(f.footer[1]))
	assert.Equal(t, 2, f.count)
	assert.Empty(t, f.stack)
}

func TestFrame_SectionsEmptyChild(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{focus: -1})

	open := true
	f.Begin("Settings##BrowserHost", &open)
	f.BeginChild("inlays", 2)
	f.EndChild()
	f.Separator()
	f.Button("Add new inlay")
	f.End()

	assert.Len(t, f.title, 1)
	assert.Empty(t, f.body)
	require.Len(t, f.footer, 2)
	assert.Equal(t, "[ Add new inlay ]", ansi.Strip(f.footer[1]))
}

func TestFrame_SameLine(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{focus: 1})
	f.BeginChild("inlays", 0)

	a, b := false, true
	f.Checkbox("Locked", &a)
	f.SameLine()
	f.Checkbox("Click Through", &b)

	assert.Equal(t, []string{theme.Unchecked + " Locked  " + theme.Checked + " Click Through"}, plain(f.body))
	assert.Equal(t, 0, f.focusLine)
	assert.True(t, f.focusInBody)
	assert.Equal(t, kindCheckbox, f.focusKind)
}

func TestFrame_Actions(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		act  action
		want func(t *testing.T, f *frame, state *frameState)
	}{
		"activate checkbox": {
			act: action{activate: true},
			want: func(t *testing.T, f *frame, _ *frameState) {
				t.Helper()

				v := false
				assert.True(t, f.Checkbox("Locked", &v))
				assert.True(t, v)
			},
		},
		"activate button": {
			act: action{activate: true},
			want: func(t *testing.T, f *frame, _ *frameState) {
				t.Helper()

				assert.True(t, f.Button("Reload"))
				assert.False(t, f.Button("Open Dev Tools"), "only the focused widget")
			},
		},
		"type into input": {
			act: action{text: ptr("abcdef"), commit: true},
			want: func(t *testing.T, f *frame, _ *frameState) {
				t.Helper()

				v := "x"
				changed, committed := f.InputText("Name", &v, 4)
				assert.True(t, changed)
				assert.True(t, committed)
				assert.Equal(t, "abcd", v)
			},
		},
		"collapse header": {
			act: action{activate: true},
			want: func(t *testing.T, f *frame, state *frameState) {
				t.Helper()

				assert.False(t, f.CollapsingHeader("Timers###header-a", nil))
				assert.True(t, state.collapsed["header-a"])
			},
		},
		"remove header": {
			act: action{remove: true},
			want: func(t *testing.T, f *frame, _ *frameState) {
				t.Helper()

				open := true
				f.CollapsingHeader("Timers###header-a", &open)
				assert.False(t, open)
			},
		},
		"disabled ignores input": {
			act: action{activate: true},
			want: func(t *testing.T, f *frame, _ *frameState) {
				t.Helper()

				v := true
				f.BeginDisabled(true)
				assert.False(t, f.Checkbox("Locked", &v))
				f.EndDisabled()
				assert.True(t, v)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			state := &frameState{act: tc.act}
			tc.want(t, newTestFrame(state), state)
		})
	}
}

func TestFrame_Tooltip(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{focus: 1})

	a, b := false, false
	f.Checkbox("Locked", &a)
	assert.False(t, f.IsItemHovered())
	f.Checkbox("Click Through", &b)
	assert.True(t, f.IsItemHovered())
}

func TestFrame_Editing(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{editing: true, editBuf: "https://"})
	f.BeginChild("inlays", 0)

	v := "about:blank"
	f.InputText("URL", &v, 100)

	require.Len(t, f.body, 1)
	assert.True(t, strings.HasSuffix(ansi.Strip(f.body[0]), "https://▏"))
	assert.Equal(t, "about:blank", f.focusValue)
}

func TestFrame_CloseWindow(t *testing.T) {
	t.Parallel()

	f := newTestFrame(&frameState{closeWindow: true})

	open := true
	f.Begin("Settings", &open)
	f.End()
	assert.False(t, open)
}

func TestTruncateBytes(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want string
		n    int
	}{
		"short":      {in: "abc", n: 5, want: "abc"},
		"exact":      {in: "abc", n: 3, want: "abc"},
		"cut":        {in: "abcdef", n: 2, want: "ab"},
		"mid rune":   {in: "aé", n: 2, want: "a"},
		"whole rune": {in: "aéb", n: 3, want: "aé"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, truncateBytes(tc.in, tc.n))
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
