// Package ui defines the immediate-mode widget surface that settings panels
// are drawn on.
//
// A [Frame] is valid for a single UI frame. Widgets are declared in order
// every frame, and each call reports what the user did to that widget since
// the previous frame. Widget identity is derived from its label combined
// with the IDs pushed by [Frame.PushID]; anything after "##" in a label is
// used for identity only, and anything after "###" replaces the identity
// entirely while the visible text stays dynamic.
package ui

import "strings"

// Frame is an immediate-mode UI frame.
type Frame interface {
	// Begin starts a window. If open is not nil the window has a close
	// button, and *open is set to false when it is used. Begin reports
	// whether the window contents are visible. [Frame.End] must always be
	// called.
	Begin(title string, open *bool) bool
	End()

	// BeginChild starts a scrolling region that leaves footerHeight rows
	// for widgets after [Frame.EndChild].
	BeginChild(id string, footerHeight int)
	EndChild()

	// CollapsingHeader draws a header and reports whether its body is
	// expanded. If open is not nil the header has a close button, and *open
	// is set to false when it is used.
	CollapsingHeader(label string, open *bool) bool

	PushID(id string)
	PopID()

	// InputText edits value, keeping it at most maxLen bytes. It reports
	// whether value changed this frame, and whether the field lost focus
	// after being edited.
	InputText(label string, value *string, maxLen int) (changed, deactivatedAfterEdit bool)
	// Checkbox toggles value and reports whether it changed.
	Checkbox(label string, value *bool) bool
	// Button reports whether the button was pressed.
	Button(label string) bool

	// IsItemHovered reports whether the previous widget has focus or the
	// pointer.
	IsItemHovered() bool
	SetTooltip(text string)

	// BeginDisabled dims the following widgets while disabled is set.
	// Disabled widgets still render, but ignore input.
	BeginDisabled(disabled bool)
	EndDisabled()

	SameLine()
	Separator()
	Spacing(rows int)
}

// ID returns the identity part of a widget label.
func ID(label string) string {
	if i := strings.Index(label, "###"); i >= 0 {
		return label[i+3:]
	}

	return label
}

// Text returns the visible part of a widget label.
func Text(label string) string {
	if i := strings.Index(label, "##"); i >= 0 {
		return label[:i]
	}

	return label
}
