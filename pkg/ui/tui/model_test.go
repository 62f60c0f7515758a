package tui_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/command"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/settings"
	"github.com/macropower/browserhost/pkg/store"
	"github.com/macropower/browserhost/pkg/ui/tui"
	"github.com/macropower/browserhost/pkg/uitest"
)

// Focus order of a single expanded inlay.
const (
	focusHeader = iota
	focusName
	focusURL
	focusLocked
	focusClickThrough
	focusReload
	focusDevTools
	focusAdd
)

type recorder struct {
	events []string
	mu     sync.Mutex
}

func (r *recorder) handle(evt event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt.String())
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.events
	r.events = nil

	return out
}

type harness struct {
	manager *settings.Manager
	model   *tui.Model
	rec     *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	c := inlays.NewConfig()
	inlay := inlays.New("a")
	inlay.Name = "Timers"
	inlay.URL = "https://example.com/timers"
	c.Inlays = append(c.Inlays, inlay)

	var n int

	bus := event.NewBus()
	m := settings.NewManager(store.NewMemoryStore(c),
		settings.WithBus(bus),
		settings.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("new-%d", n)
		}),
	)
	t.Cleanup(m.Dispose)

	m.Initialise(t.Context())
	require.NoError(t, m.WaitReady(t.Context()))

	rec := &recorder{}
	bus.Subscribe(rec.handle)

	d := command.NewDispatcher()
	require.NoError(t, m.RegisterCommands(d))

	m.Open()

	model := tui.NewModel(t.Context(), m, tui.WithDispatcher(d), tui.WithEvents(bus))
	model.Update(tea.WindowSizeMsg{Width: uitest.Compact.Width, Height: uitest.Compact.Height})

	return &harness{manager: m, model: model, rec: rec}
}

func (h *harness) press(keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = h.model.Update(k)
	}

	return cmd
}

func (h *harness) focus(idx int) {
	for range idx {
		h.press(key(tea.KeyDown))
	}
}

func (h *harness) view() string {
	return ansi.Strip(h.model.View())
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_View(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	view := h.view()

	assert.Contains(t, view, "Settings")
	assert.Contains(t, view, "Timers")
	assert.Contains(t, view, "URL: https://example.com/timers")
	assert.Contains(t, view, "[ Add new inlay ]")
	assert.Contains(t, view, "not saved")
	assert.LessOrEqual(t, strings.Count(view, "\n")+1, uitest.Compact.Height)
}

func TestModel_Buttons(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want  []string
		focus int
	}{
		"reload":    {focus: focusReload, want: []string{"InlayNavigated(a)"}},
		"dev tools": {focus: focusDevTools, want: []string{"InlayDebugged(a)"}},
		"add":       {focus: focusAdd, want: []string{"InlayAdded(new-1)"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.focus(tc.focus)
			h.press(key(tea.KeyEnter))

			assert.Equal(t, tc.want, h.rec.take())
		})
	}
}

func TestModel_EditURL(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.focus(focusURL)

	h.press(key(tea.KeyEnter), key(tea.KeyCtrlU), runes("https://example.com/chat"))

	inlay, err := h.manager.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/chat", inlay.URL, "edits apply while typing")
	assert.Empty(t, h.rec.take())
	assert.True(t, h.manager.SavePending())

	h.press(key(tea.KeyEnter))
	assert.Equal(t, []string{"InlayNavigated(a)"}, h.rec.take())
}

func TestModel_EnterWithoutEdit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.focus(focusURL)
	h.rec.take()

	h.press(key(tea.KeyEnter), key(tea.KeyEnter))

	assert.Empty(t, h.rec.take(), "leaving an unchanged field does not navigate")
	assert.False(t, h.manager.SavePending())

	inlay, err := h.manager.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/timers", inlay.URL)
}

func TestModel_EscRevertsEdit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.focus(focusName)

	h.press(key(tea.KeyEnter), key(tea.KeyBackspace), key(tea.KeyBackspace), runes("x"))

	inlay, err := h.manager.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, "Timex", inlay.Name)

	h.press(key(tea.KeyEsc))

	inlay, err = h.manager.Inlay("a")
	require.NoError(t, err)
	assert.Equal(t, "Timers", inlay.Name)
	assert.True(t, h.manager.IsOpen(), "esc while editing keeps the panel open")
}

func TestModel_Checkboxes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.focus(focusClickThrough)
	h.press(key(tea.KeySpace))

	inlay, err := h.manager.Inlay("a")
	require.NoError(t, err)
	assert.True(t, inlay.ClickThrough)
	assert.True(t, inlay.EffectiveLocked())

	h.press(key(tea.KeyUp), key(tea.KeySpace))

	inlay, err = h.manager.Inlay("a")
	require.NoError(t, err)
	assert.False(t, inlay.Locked, "locked is disabled while click through is set")
	assert.Contains(t, h.view(), "implicitly set by Click Through")
}

func TestModel_RemoveAndCollapse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.press(key(tea.KeyEnter))
	assert.NotContains(t, h.view(), "URL:")

	h.press(key(tea.KeyEnter))
	assert.Contains(t, h.view(), "URL:")

	h.press(runes("x"))
	assert.Equal(t, []string{"InlayRemoved(a)"}, h.rec.take())
	assert.Empty(t, h.manager.Inlays())
	assert.NotContains(t, h.view(), "Timers")
}

func TestModel_PanelVisibility(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.press(key(tea.KeyEsc))
	assert.False(t, h.manager.IsOpen())
	assert.Contains(t, h.view(), "settings panel is closed")

	h.press(runes("x"))
	assert.Empty(t, h.rec.take(), "panel keys are ignored while closed")

	h.press(key(tea.KeyCtrlO))
	assert.True(t, h.manager.IsOpen())
	assert.Contains(t, h.view(), "Timers")
}

func TestModel_Command(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		want    []string
		wantErr string
	}{
		"add": {
			input: "pbrowser add",
			want:  []string{"InlayAdded(new-1)"},
		},
		"debug": {
			input: "pbrowser debug a",
			want:  []string{"InlayDebugged(a)"},
		},
		"unknown inlay": {
			input:   "pbrowser reload nope",
			wantErr: "not found",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.press(runes("/"))
			assert.Contains(t, h.view(), "/")

			h.press(runes(tc.input))
			cmd := h.press(key(tea.KeyEnter))
			require.NotNil(t, cmd)

			h.model.Update(cmd())

			assert.Equal(t, tc.want, h.rec.take())
			if tc.wantErr == "" {
				assert.NotContains(t, h.view(), "press any key to dismiss")

				return
			}

			assert.Contains(t, h.view(), tc.wantErr)
			assert.Contains(t, h.view(), "press any key to dismiss")

			assert.Nil(t, h.press(runes("q")), "dismissing key does not quit")
			assert.NotContains(t, h.view(), "press any key to dismiss")
		})
	}
}

func TestModel_Program(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tm := uitest.NewTestModel(t, h.model, uitest.Standard)

	uitest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "Timers")
	})

	require.NoError(t, h.manager.ReloadInlay(t.Context(), "a"))

	uitest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), "InlayNavigated(a)")
	})

	uitest.Quit(t, tm, runes("q"))
}
