package uitest

import (
	"fmt"
	"strings"

	"github.com/macropower/browserhost/pkg/ui"
)

// Widget is a widget recorded by [Frame].
type Widget struct {
	Kind     string
	Path     string
	Text     string
	Value    string
	Checked  bool
	Disabled bool
	SameLine bool
}

type input struct {
	text   *string
	commit bool
	click  bool
	close  bool
}

// Frame is a scripted [ui.Frame]. Input scheduled with [Frame.Click],
// [Frame.Type], [Frame.Edit] and [Frame.Close] is delivered to the matching
// widget the next time it is declared, then discarded.
type Frame struct {
	inputs    map[string]*input
	collapsed map[string]bool
	hovered   map[string]bool

	// Tooltips maps widget paths to the tooltip set while they were hovered.
	Tooltips map[string]string
	// Widgets lists the widgets declared since the last [Frame.Next].
	Widgets []Widget

	stack    []string
	lastPath string
	disabled []bool
	sameLine bool
}

var _ ui.Frame = (*Frame)(nil)

// NewFrame creates a new [Frame].
func NewFrame() *Frame {
	return &Frame{
		inputs:    make(map[string]*input),
		collapsed: make(map[string]bool),
		hovered:   make(map[string]bool),
		Tooltips:  make(map[string]string),
	}
}

// Next clears the recorded widgets, ready for another frame.
func (f *Frame) Next() {
	f.Widgets = nil
	f.stack = nil
	f.disabled = nil
	f.sameLine = false
	clear(f.Tooltips)
}

// Click presses a button or toggles a checkbox.
func (f *Frame) Click(path string) {
	f.input(path).click = true
}

// Type replaces a text field's content and then moves focus away from it.
func (f *Frame) Type(path, value string) {
	in := f.input(path)
	in.text = &value
	in.commit = true
}

// Edit replaces a text field's content while it keeps focus.
func (f *Frame) Edit(path, value string) {
	f.input(path).text = &value
}

// Close uses the close button of a window or header.
func (f *Frame) Close(path string) {
	f.input(path).close = true
}

// Collapse hides or shows a header's body until changed again.
func (f *Frame) Collapse(path string, collapsed bool) {
	f.collapsed[path] = collapsed
}

// Hover places the pointer over a widget until changed again.
func (f *Frame) Hover(path string, hovered bool) {
	f.hovered[path] = hovered
}

// Find returns the recorded widget with the given path.
func (f *Frame) Find(path string) (Widget, bool) {
	for _, w := range f.Widgets {
		if w.Path == path {
			return w, true
		}
	}

	return Widget{}, false
}

// Kinds returns the recorded widgets as "kind:text" strings, in order.
func (f *Frame) Kinds() []string {
	out := make([]string, 0, len(f.Widgets))
	for _, w := range f.Widgets {
		out = append(out, fmt.Sprintf("%s:%s", w.Kind, w.Text))
	}

	return out
}

func (f *Frame) Begin(title string, open *bool) bool {
	path := f.record("window", title, func(w *Widget) {
		w.Checked = open == nil || *open
	})
	f.stack = append(f.stack, ui.ID(title))

	if in := f.take(path); in != nil && in.close && open != nil {
		*open = false
	}

	return true
}

func (f *Frame) End() {
	f.pop()
}

func (f *Frame) BeginChild(id string, _ int) {
	f.record("child", id, nil)
	f.stack = append(f.stack, id)
}

func (f *Frame) EndChild() {
	f.pop()
}

func (f *Frame) CollapsingHeader(label string, open *bool) bool {
	path := f.record("header", label, nil)

	if in := f.take(path); in != nil && in.close && open != nil {
		*open = false
	}

	return !f.collapsed[path]
}

func (f *Frame) PushID(id string) {
	f.stack = append(f.stack, id)
}

func (f *Frame) PopID() {
	f.pop()
}

func (f *Frame) InputText(label string, value *string, maxLen int) (bool, bool) {
	var changed, committed bool

	path := f.path(label)

	if in := f.take(path); in != nil && in.text != nil && !f.isDisabled() {
		v := *in.text
		if len(v) > maxLen {
			v = v[:maxLen]
		}

		changed = v != *value
		*value = v
		committed = in.commit
	}

	f.record("input", label, func(w *Widget) {
		w.Value = *value
	})

	return changed, committed
}

func (f *Frame) Checkbox(label string, value *bool) bool {
	var changed bool

	path := f.path(label)

	if in := f.take(path); in != nil && in.click && !f.isDisabled() {
		*value = !*value
		changed = true
	}

	f.record("checkbox", label, func(w *Widget) {
		w.Checked = *value
	})

	return changed
}

func (f *Frame) Button(label string) bool {
	path := f.record("button", label, nil)

	in := f.take(path)

	return in != nil && in.click && !f.isDisabled()
}

func (f *Frame) IsItemHovered() bool {
	return f.hovered[f.lastPath]
}

func (f *Frame) SetTooltip(text string) {
	f.Tooltips[f.lastPath] = text
}

func (f *Frame) BeginDisabled(disabled bool) {
	f.disabled = append(f.disabled, disabled)
}

func (f *Frame) EndDisabled() {
	if len(f.disabled) > 0 {
		f.disabled = f.disabled[:len(f.disabled)-1]
	}
}

func (f *Frame) SameLine() {
	f.sameLine = true
}

func (f *Frame) Separator() {
	f.record("separator", "", nil)
}

func (f *Frame) Spacing(int) {}

func (f *Frame) input(path string) *input {
	in, ok := f.inputs[path]
	if !ok {
		in = &input{}
		f.inputs[path] = in
	}

	return in
}

func (f *Frame) take(path string) *input {
	in, ok := f.inputs[path]
	if !ok {
		return nil
	}

	delete(f.inputs, path)

	return in
}

func (f *Frame) path(label string) string {
	return strings.Join(append(append([]string{}, f.stack...), ui.ID(label)), "/")
}

func (f *Frame) record(kind, label string, fn func(*Widget)) string {
	w := Widget{
		Kind:     kind,
		Path:     f.path(label),
		Text:     ui.Text(label),
		Disabled: f.isDisabled(),
		SameLine: f.sameLine,
	}
	if fn != nil {
		fn(&w)
	}

	f.Widgets = append(f.Widgets, w)
	f.lastPath = w.Path
	f.sameLine = false

	return w.Path
}

func (f *Frame) pop() {
	if len(f.stack) > 0 {
		f.stack = f.stack[:len(f.stack)-1]
	}
}

func (f *Frame) isDisabled() bool {
	for _, d := range f.disabled {
		if d {
			return true
		}
	}

	return false
}
