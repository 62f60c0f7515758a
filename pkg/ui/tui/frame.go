package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/macropower/browserhost/pkg/ui"
	"github.com/macropower/browserhost/pkg/ui/theme"
)

type widgetKind int

const (
	kindNone widgetKind = iota
	kindHeader
	kindInput
	kindCheckbox
	kindButton
)

// action is user input aimed at the focused widget. It is consumed by the
// first frame that declares that widget.
type action struct {
	text     *string
	activate bool
	remove   bool
	commit   bool
}

func (a action) pending() bool {
	return a.activate || a.remove || a.text != nil
}

// frameState is what the model keeps between frames.
type frameState struct {
	collapsed   map[string]bool
	act         action
	editBuf     string
	focus       int
	width       int
	editing     bool
	closeWindow bool
}

// frame is a [ui.Frame] that renders to lines of styled text. Focusable
// widgets are numbered in declaration order; the one matching
// [frameState.focus] receives input.
type frame struct {
	theme *theme.Theme
	state *frameState

	title  []string
	body   []string
	footer []string

	stack    []string
	disabled []bool

	tooltip    string
	focusValue string
	focusLine  int
	focusKind  widgetKind
	count      int

	lastFocused bool
	focusInBody bool
	sameLine    bool
	inChild     bool
	childEnded  bool
}

var _ ui.Frame = (*frame)(nil)

func newFrame(t *theme.Theme, state *frameState) *frame {
	return &frame{
		theme:     t,
		state:     state,
		focusLine: -1,
	}
}

func (f *frame) Begin(title string, open *bool) bool {
	line := f.theme.TitleStyle.Render(ui.Text(title))
	if open != nil {
		line += " " + f.theme.SubtleStyle.Render("esc "+theme.CloseIcon)
	}

	f.title = append(f.title, line)
	f.stack = append(f.stack, ui.ID(title))

	if f.state.closeWindow && open != nil {
		*open = false
	}

	return true
}

func (f *frame) End() {
	f.pop()
}

func (f *frame) BeginChild(id string, _ int) {
	f.inChild = true
	f.stack = append(f.stack, id)
}

func (f *frame) EndChild() {
	f.inChild = false
	f.childEnded = true
	f.pop()
}

func (f *frame) CollapsingHeader(label string, open *bool) bool {
	path := f.path(label)
	focused := f.focusable(kindHeader, ui.Text(label))

	if focused && !f.isDisabled() {
		if f.state.act.activate {
			f.state.collapsed[path] = !f.state.collapsed[path]
		}
		if f.state.act.remove && open != nil {
			*open = false
		}
	}

	expanded := !f.state.collapsed[path]

	icon := theme.Expanded
	if !expanded {
		icon = theme.Collapsed
	}

	text := f.theme.HeaderStyle.Render(icon + " " + ui.Text(label))
	if open != nil {
		text += " " + f.theme.SubtleStyle.Render(theme.CloseIcon)
	}

	f.emit(f.decorate(text, focused))

	return expanded
}

func (f *frame) PushID(id string) {
	f.stack = append(f.stack, id)
}

func (f *frame) PopID() {
	f.pop()
}

func (f *frame) InputText(label string, value *string, maxLen int) (bool, bool) {
	var changed, committed bool

	focused := f.focusable(kindInput, *value)

	if focused && f.state.act.text != nil && !f.isDisabled() {
		v := truncateBytes(*f.state.act.text, maxLen)
		changed = v != *value
		*value = v
		committed = f.state.act.commit
	}

	display := *value
	style := f.theme.InputStyle

	if focused && f.state.editing {
		display = f.state.editBuf + "▏"
		style = f.theme.EditingStyle
	}

	if focused {
		f.focusValue = *value
	}

	fieldWidth := max(10, f.state.width-ansi.StringWidth(label)-8)
	display = ansi.Truncate(display, fieldWidth, theme.Ellipsis)

	text := f.theme.LabelStyle.Render(ui.Text(label)+": ") + style.Render(display)
	f.emit(f.decorate(text, focused))

	return changed, committed
}

func (f *frame) Checkbox(label string, value *bool) bool {
	var changed bool

	focused := f.focusable(kindCheckbox, "")

	if focused && f.state.act.activate && !f.isDisabled() {
		*value = !*value
		changed = true
	}

	box := theme.Unchecked
	if *value {
		box = theme.Checked
	}

	f.emit(f.decorate(f.theme.LabelStyle.Render(box+" "+ui.Text(label)), focused))

	return changed
}

func (f *frame) Button(label string) bool {
	focused := f.focusable(kindButton, "")

	text := f.theme.ButtonStyle.Render("[ " + ui.Text(label) + " ]")
	f.emit(f.decorate(text, focused))

	return focused && f.state.act.activate && !f.isDisabled()
}

func (f *frame) IsItemHovered() bool {
	return f.lastFocused
}

func (f *frame) SetTooltip(text string) {
	f.tooltip = text
}

func (f *frame) BeginDisabled(disabled bool) {
	f.disabled = append(f.disabled, disabled)
}

func (f *frame) EndDisabled() {
	if len(f.disabled) > 0 {
		f.disabled = f.disabled[:len(f.disabled)-1]
	}
}

func (f *frame) SameLine() {
	f.sameLine = true
}

func (f *frame) Separator() {
	f.emit(f.theme.SeparatorStyle.Render(strings.Repeat("─", max(1, f.state.width))))
}

func (f *frame) Spacing(rows int) {
	for range rows {
		*f.target() = append(*f.target(), "")
	}

	f.sameLine = false
}

// focusable numbers the next widget and reports whether it has focus.
func (f *frame) focusable(kind widgetKind, value string) bool {
	idx := f.count
	f.count++

	focused := idx == f.state.focus
	f.lastFocused = focused

	if focused {
		f.focusKind = kind
		f.focusValue = value
	}

	return focused
}

func (f *frame) decorate(text string, focused bool) string {
	if f.isDisabled() {
		text = f.theme.DisabledStyle.Render(ansi.Strip(text))
	}
	if focused {
		text = f.theme.FocusedStyle.Render(ansi.Strip(text))
		f.focusInBody = f.inChild
		f.focusLine = len(*f.target())
		if f.sameLine && len(*f.target()) > 0 {
			f.focusLine--
		}
	}

	return text
}

func (f *frame) emit(text string) {
	lines := f.target()
	if f.sameLine && len(*lines) > 0 {
		(*lines)[len(*lines)-1] += "  " + text
	} else {
		*lines = append(*lines, text)
	}

	f.sameLine = false
}

func (f *frame) target() *[]string {
	switch {
	case f.inChild:
		return &f.body
	case f.childEnded:
		return &f.footer
	default:
		return &f.title
	}
}

func (f *frame) path(label string) string {
	return strings.Join(append(append([]string{}, f.stack...), ui.ID(label)), "/")
}

func (f *frame) pop() {
	if len(f.stack) > 0 {
		f.stack = f.stack[:len(f.stack)-1]
	}
}

func (f *frame) isDisabled() bool {
	for _, d := range f.disabled {
		if d {
			return true
		}
	}

	return false
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
