// Package statusbar renders the status and help lines below the settings
// panel.
package statusbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/macropower/browserhost/pkg/ui/theme"
	"github.com/macropower/browserhost/pkg/version"
)

const (
	helpText  = " ? Help "
	errorText = " ! Error "
)

type StatusBarStyle int

const (
	StyleNormal StatusBarStyle = iota
	StyleSuccess
	StyleError
)

// StatusBarRenderer renders a single status line.
type StatusBarRenderer struct {
	theme   *theme.Theme
	now     func() time.Time
	message string
	width   int
	style   StatusBarStyle
}

type StatusBarOpt func(*StatusBarRenderer)

// NewStatusBarRenderer creates a new [StatusBarRenderer].
func NewStatusBarRenderer(t *theme.Theme, width int, opts ...StatusBarOpt) *StatusBarRenderer {
	sb := &StatusBarRenderer{
		theme: t,
		now:   time.Now,
		width: max(30, width),
		style: StyleNormal,
	}
	for _, opt := range opts {
		opt(sb)
	}

	return sb
}

func WithMessage(message string) StatusBarOpt {
	return func(r *StatusBarRenderer) {
		r.style = StyleSuccess
		r.message = message
	}
}

func WithError(message string) StatusBarOpt {
	return func(r *StatusBarRenderer) {
		r.style = StyleError
		r.message = message
	}
}

// WithClock replaces the clock used for relative save times.
func WithClock(now func() time.Time) StatusBarOpt {
	return func(r *StatusBarRenderer) {
		r.now = now
	}
}

// Render renders the status bar. msg is shown unless a message option was
// given. The save note reports when the configuration was last saved and
// whether a save is pending.
func (r *StatusBarRenderer) Render(msg string, lastSaved time.Time, pending bool) string {
	logo := r.logoView()
	saveNote := r.renderSaveNote(lastSaved, pending)
	helpNote := r.renderHelpNote()
	note := r.renderNote(msg, logo, saveNote, helpNote)
	emptySpace := r.renderEmptySpace(logo, note, saveNote, helpNote)

	return logo + note + emptySpace + saveNote + helpNote
}

// SaveNote describes the save state in words.
func SaveNote(now, lastSaved time.Time, pending bool) string {
	var note string

	if lastSaved.IsZero() {
		note = "not saved"
	} else {
		note = "saved " + humanize.RelTime(lastSaved, now, "ago", "from now")
	}

	if pending {
		note += ", pending"
	}

	return note
}

func (r *StatusBarRenderer) renderSaveNote(lastSaved time.Time, pending bool) string {
	return r.stateStyle().Render(" " + SaveNote(r.now(), lastSaved, pending) + " ")
}

func (r *StatusBarRenderer) renderHelpNote() string {
	if r.style == StyleError {
		return r.theme.StatusBarErrorStyle.Bold(true).Render(errorText)
	}

	return r.theme.HelpStyle.Render(helpText)
}

func (r *StatusBarRenderer) renderNote(msg string, others ...string) string {
	if r.message != "" {
		msg = r.message
	}

	msg = strings.TrimSpace(strings.ReplaceAll(msg, "\n", " "))

	availableWidth := r.width
	for _, o := range others {
		availableWidth -= ansi.PrintableRuneWidth(o)
	}

	note := truncate.StringWithTail(" "+msg+" ", uint(max(0, availableWidth)), theme.Ellipsis) //nolint:gosec // Uses max.

	return r.stateStyle().Render(note)
}

func (r *StatusBarRenderer) renderEmptySpace(components ...string) string {
	padding := r.width
	for _, comp := range components {
		padding -= ansi.PrintableRuneWidth(comp)
	}

	return r.stateStyle().Render(strings.Repeat(" ", max(0, padding)))
}

// stateStyle returns the background style for the current state.
func (r *StatusBarRenderer) stateStyle() lipgloss.Style {
	switch r.style {
	case StyleError:
		return r.theme.StatusBarErrorStyle
	case StyleSuccess:
		return r.theme.StatusBarMessageStyle
	default:
		return r.theme.StatusBarStyle
	}
}

func (r *StatusBarRenderer) logoView() string {
	return r.theme.LogoStyle.Render(fmt.Sprintf(" browserhost %s ", version.GetVersion()))
}
