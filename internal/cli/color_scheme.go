package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"

	"github.com/macropower/browserhost/pkg/ui/theme"
)

// ColorSchemeFunc colors fang's help and error output with the default theme.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return ThemeColorScheme(theme.Default, c)
}

func ThemeColorScheme(t *theme.Theme, c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           t.GenericTextStyle.GetForeground(),
		Title:          t.LogoStyle.GetBackground(),
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        t.SelectedStyle.GetForeground(),
		Command:        t.SelectedStyle.GetForeground(),
		DimmedArgument: t.SubtleStyle.GetForeground(),
		Comment:        t.SubtleStyle.GetForeground(),
		Flag:           t.ButtonStyle.GetForeground(),
		Argument:       t.InputStyle.GetForeground(),
		Description:    t.GenericTextStyle.GetForeground(),
		FlagDefault:    t.SubtleStyle.GetForeground(),
		QuotedString:   t.InputStyle.GetForeground(),
		ErrorHeader: [2]color.Color{
			t.StatusBarErrorStyle.GetForeground(),
			t.StatusBarErrorStyle.GetBackground(),
		},
	}
}
