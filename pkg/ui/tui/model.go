// Package tui hosts a settings panel in a terminal.
//
// The panel is drawn through [ui.Frame] like any other host would draw it.
// Keyboard focus stands in for the pointer: the focused widget is the
// hovered one, and key presses are delivered to it on the next frame.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/keys"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/ui"
	"github.com/macropower/browserhost/pkg/ui/overlay"
	"github.com/macropower/browserhost/pkg/ui/statusbar"
	"github.com/macropower/browserhost/pkg/ui/theme"
)

const (
	eventBuffer = 64
	tickEvery   = time.Second

	// Horizontal and vertical space taken by the window border and padding.
	windowFrameWidth  = 4
	windowFrameHeight = 2

	popupWidth = 0.6
)

// Panel is a settings panel drawn on a [ui.Frame].
type Panel interface {
	Render(ctx context.Context, f ui.Frame)
	IsOpen() bool
	Toggle()
	LastSaved() time.Time
	SavePending() bool
}

// Dispatcher runs chat-style commands such as "/pbrowser".
type Dispatcher interface {
	Dispatch(ctx context.Context, line string) error
}

type (
	eventMsg   event.Event
	tickMsg    time.Time
	commandMsg struct {
		err  error
		line string
	}
)

// Model is the [tea.Model] hosting a [Panel].
type Model struct {
	ctx        context.Context //nolint:containedctx // Passed to the panel on every frame.
	panel      Panel
	dispatcher Dispatcher
	theme      *theme.Theme
	help       *statusbar.HelpRenderer
	overlay    *overlay.Overlay
	events     chan event.Event
	state      *frameState
	keys       keys.KeyMap

	command  textinput.Model
	viewport viewport.Model

	message    string
	errMessage string
	editOrig   string
	focusValue string
	tooltip    string
	popup      string

	title  []string
	footer []string

	focusKind widgetKind
	count     int
	width     int
	height    int

	commandMode bool
	showHelp    bool
	// Set once a keystroke has changed the field being edited.
	edited bool
}

// ModelOpt configures a [Model].
type ModelOpt func(*Model)

// WithDispatcher enables command mode, sending entered lines to d.
func WithDispatcher(d Dispatcher) ModelOpt {
	return func(m *Model) {
		m.dispatcher = d
	}
}

// WithEvents shows events published on bus in the status bar. Events are
// dropped rather than blocking the publisher when the model falls behind.
func WithEvents(bus *event.Bus) ModelOpt {
	return func(m *Model) {
		ch := make(chan event.Event, eventBuffer)
		bus.Subscribe(func(evt event.Event) {
			select {
			case ch <- evt:
			default:
			}
		})
		m.events = ch
	}
}

// WithTheme sets the theme.
func WithTheme(t *theme.Theme) ModelOpt {
	return func(m *Model) {
		m.theme = t
	}
}

// WithKeyMap replaces [keys.DefaultKeyMap].
func WithKeyMap(km keys.KeyMap) ModelOpt {
	return func(m *Model) {
		m.keys = km
	}
}

// NewModel creates a new [Model] for panel.
func NewModel(ctx context.Context, panel Panel, opts ...ModelOpt) *Model {
	m := &Model{
		ctx:   ctx,
		panel: panel,
		theme: theme.Default,
		keys:  keys.DefaultKeyMap(),
		state: &frameState{
			collapsed: make(map[string]bool),
		},
		viewport: viewport.New(0, 0),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.command = textinput.New()
	m.command.Prompt = "/"
	m.command.CharLimit = 200
	m.command.PromptStyle = m.theme.LabelStyle
	m.command.TextStyle = m.theme.InputStyle

	kbr := &keys.KeyBindRenderer{}
	for _, col := range m.keys.Columns() {
		kbr.AddColumn(col...)
	}

	m.help = statusbar.NewHelpRenderer(m.theme, kbr)
	m.overlay = overlay.New(m.theme)

	return m
}

// NewProgram creates a full-screen [tea.Program] running m.
func NewProgram(m *Model, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(m.ctx)}, opts...)

	return tea.NewProgram(m, opts...)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), tick())
}

//nolint:ireturn // Must satisfy [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.state.width = max(1, msg.Width-windowFrameWidth)
		m.overlay.SetSize(msg.Width, msg.Height)
		m.redraw()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case eventMsg:
		m.setMessage(event.Event(msg).String())
		m.redraw()

		return m, m.waitForEvent()

	case commandMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			m.popup = msg.line + ": " + msg.err.Error()
		} else {
			m.setMessage(msg.line)
		}

		m.redraw()

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

func (m *Model) View() string {
	var sections []string

	if m.panel.IsOpen() {
		window := make([]string, 0, len(m.title)+len(m.footer)+1)
		window = append(window, m.title...)
		window = append(window, m.viewport.View())
		window = append(window, m.footer...)
		sections = append(sections, m.theme.WindowStyle.Render(strings.Join(window, "\n")))
	} else {
		closed := m.theme.SubtleStyle.Render("The settings panel is closed. Press " +
			m.keys.TogglePanel.String() + " to open it.")
		sections = append(sections, lipgloss.PlaceVertical(max(1, m.bodyHeight()), lipgloss.Top, closed))
	}

	if m.tooltip != "" {
		sections = append(sections, m.theme.TooltipStyle.Render(m.tooltip))
	}

	if m.commandMode {
		sections = append(sections, m.command.View())
	}

	sections = append(sections, m.statusBar())

	if m.showHelp {
		sections = append(sections, m.help.Render(m.width))
	}

	view := strings.Join(sections, "\n")

	if m.popup != "" {
		popup := m.popup + "\n\n" + m.theme.SubtleStyle.Render("press any key to dismiss")
		view = m.overlay.Place(view, popup, popupWidth, m.theme.PopupStyle)
	}

	return view
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	LogKeyPress(m.ctx, key, m.keyContext())

	if m.popup != "" {
		m.popup = ""
		return nil
	}

	switch {
	case m.commandMode:
		return m.handleCommandKey(msg)
	case m.state.editing:
		m.handleEditKey(msg)
		return nil
	}

	km := m.keys

	switch {
	case km.Quit.Match(key):
		return tea.Quit

	case km.TogglePanel.Match(key):
		m.panel.Toggle()

	case km.Help.Match(key):
		m.showHelp = !m.showHelp

	case km.Command.Match(key) && m.dispatcher != nil:
		m.commandMode = true
		m.command.Reset()
		m.redraw()

		return m.command.Focus()

	case !m.panel.IsOpen():
		return nil

	case km.Cancel.Match(key):
		m.state.closeWindow = true

	case km.Up.Match(key):
		m.moveFocus(-1)

	case km.Down.Match(key):
		m.moveFocus(1)

	case km.PageUp.Match(key):
		m.moveFocus(-max(1, m.viewport.Height))

	case km.PageDown.Match(key):
		m.moveFocus(max(1, m.viewport.Height))

	case km.Activate.Match(key):
		if m.focusKind == kindInput {
			m.state.editing = true
			m.state.editBuf = m.focusValue
			m.editOrig = m.focusValue
			m.edited = false
		} else {
			m.state.act.activate = true
		}

	case km.Remove.Match(key):
		m.state.act.remove = true

	case km.Copy.Match(key):
		termenv.Copy(m.focusValue)
		_ = clipboard.WriteAll(m.focusValue) //nolint:errcheck // OSC 52 already tried.
		m.setMessage("copied value")

	default:
		return nil
	}

	m.redraw()

	return nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "enter", "tab", "shift+tab", "up", "down":
		m.commitEdit(m.state.editBuf, m.edited)
	case "esc":
		m.commitEdit(m.editOrig, false)
	case "backspace":
		r := []rune(m.state.editBuf)
		if len(r) > 0 {
			m.state.editBuf = string(r[:len(r)-1])
		}
		m.setEditText()
	case "ctrl+u":
		m.state.editBuf = ""
		m.setEditText()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.state.editBuf += string(msg.Runes)
			m.setEditText()
		}
	}

	m.redraw()
}

func (m *Model) setEditText() {
	text := m.state.editBuf
	m.state.act.text = &text
	m.edited = true
}

// commitEdit ends editing, setting the field to value. The field reports
// being deactivated after an edit only when commit is set.
func (m *Model) commitEdit(value string, commit bool) {
	m.state.editing = false
	m.state.act.text = &value
	m.state.act.commit = commit
}

func (m *Model) handleCommandKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.commandMode = false
		m.command.Blur()
		m.redraw()

		return nil

	case "enter":
		line := "/" + strings.TrimSpace(m.command.Value())
		m.commandMode = false
		m.command.Blur()
		m.redraw()

		return m.dispatch(line)
	}

	var cmd tea.Cmd

	m.command, cmd = m.command.Update(msg)

	return cmd
}

func (m *Model) dispatch(line string) tea.Cmd {
	d := m.dispatcher
	ctx := m.ctx

	return func() tea.Msg {
		return commandMsg{line: line, err: d.Dispatch(ctx, line)}
	}
}

func (m *Model) moveFocus(delta int) {
	m.state.focus = max(0, min(m.count-1, m.state.focus+delta))
}

// redraw draws the panel, applying any pending action. A frame that
// consumed an action is drawn again so that the view reflects its effects.
func (m *Model) redraw() {
	pending := m.state.act.pending() || m.state.closeWindow

	f := m.draw()
	if pending {
		f = m.draw()
	}

	m.count = f.count
	if m.count > 0 && m.state.focus >= m.count {
		m.state.focus = m.count - 1
		f = m.draw()
	}

	m.focusKind = f.focusKind
	m.focusValue = f.focusValue
	m.tooltip = f.tooltip
	m.title = f.title
	m.footer = f.footer

	m.viewport.Width = m.state.width
	m.viewport.Height = max(1, m.bodyHeight()-windowFrameHeight-len(f.title)-len(f.footer))
	m.viewport.SetContent(strings.Join(f.body, "\n"))

	if f.focusInBody {
		switch {
		case f.focusLine < m.viewport.YOffset:
			m.viewport.SetYOffset(f.focusLine)
		case f.focusLine >= m.viewport.YOffset+m.viewport.Height:
			m.viewport.SetYOffset(f.focusLine - m.viewport.Height + 1)
		}
	}
}

func (m *Model) draw() *frame {
	f := newFrame(m.theme, m.state)
	m.panel.Render(m.ctx, f)

	m.state.act = action{}
	m.state.closeWindow = false

	return f
}

// bodyHeight is the height left for the panel once the tooltip, command,
// status and help lines are placed.
func (m *Model) bodyHeight() int {
	h := m.height - 2
	if m.commandMode {
		h--
	}
	if m.showHelp {
		h -= m.help.Height(m.width)
	}

	return h
}

func (m *Model) statusBar() string {
	var opts []statusbar.StatusBarOpt

	switch {
	case m.errMessage != "":
		opts = append(opts, statusbar.WithError(m.errMessage))
	case m.message != "":
		opts = append(opts, statusbar.WithMessage(m.message))
	}

	r := statusbar.NewStatusBarRenderer(m.theme, m.width, opts...)

	return r.Render("", m.panel.LastSaved(), m.panel.SavePending())
}

func (m *Model) setMessage(msg string) {
	m.message = msg
	m.errMessage = ""
}

func (m *Model) setError(msg string) {
	m.message = ""
	m.errMessage = msg
}

func (m *Model) keyContext() string {
	switch {
	case m.popup != "":
		return "popup"
	case m.commandMode:
		return "command"
	case m.state.editing:
		return "edit"
	case m.panel.IsOpen():
		return "panel"
	default:
		return "closed"
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}

	ch := m.events

	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// LogKeyPress logs a key press at debug level.
func LogKeyPress(ctx context.Context, key, keyContext string) {
	log.WithContext(ctx).DebugContext(ctx, "key pressed",
		slog.String("key", key),
		slog.String("context", keyContext),
	)
}
