package theme

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// HuhTheme styles huh prompts, such as the remove confirmation, to match t.
func HuhTheme(t *Theme) *huh.Theme {
	h := huh.ThemeBase()

	accent := t.SelectedStyle.GetForeground()
	subtle := t.SubtleStyle.GetForeground()

	f := &h.Focused
	f.Base = f.Base.BorderForeground(accent)
	f.Card = f.Base
	f.Title = f.Title.Foreground(accent).Bold(true)
	f.Description = f.Description.Foreground(subtle)
	f.ErrorIndicator = f.ErrorIndicator.Foreground(t.ErrorTextStyle.GetForeground())
	f.ErrorMessage = f.ErrorMessage.Foreground(t.ErrorTextStyle.GetForeground())
	f.FocusedButton = f.FocusedButton.
		Foreground(t.LogoStyle.GetForeground()).
		Background(t.LogoStyle.GetBackground())
	f.BlurredButton = f.BlurredButton.
		Foreground(t.LogoStyle.GetForeground()).
		Background(subtle)
	f.TextInput.Cursor = f.TextInput.Cursor.Foreground(accent)
	f.TextInput.Placeholder = f.TextInput.Placeholder.Foreground(subtle)
	f.TextInput.Prompt = f.TextInput.Prompt.Foreground(accent)

	h.Blurred = h.Focused
	h.Blurred.Base = f.Base.BorderStyle(lipgloss.HiddenBorder())
	h.Blurred.Card = h.Blurred.Base

	return h
}
