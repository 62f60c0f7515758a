// Package theme derives terminal styles for the settings panel from a
// chroma style.
package theme

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Icons.
const (
	Ellipsis  = "…"
	Expanded  = "▾"
	Collapsed = "▸"
	CloseIcon = "✕"
	Checked   = "[x]"
	Unchecked = "[ ]"
)

var (
	ErrInvalidName    = errors.New("invalid theme name")
	ErrRegisterStyles = errors.New("register styles")
)

var Default = New("github")

type Theme struct {
	WindowStyle           lipgloss.Style
	TitleStyle            lipgloss.Style
	HeaderStyle           lipgloss.Style
	LabelStyle            lipgloss.Style
	InputStyle            lipgloss.Style
	EditingStyle          lipgloss.Style
	ButtonStyle           lipgloss.Style
	FocusedStyle          lipgloss.Style
	DisabledStyle         lipgloss.Style
	SeparatorStyle        lipgloss.Style
	TooltipStyle          lipgloss.Style
	PopupStyle            lipgloss.Style
	HelpStyle             lipgloss.Style
	SubtleStyle           lipgloss.Style
	ErrorTextStyle        lipgloss.Style
	LogoStyle             lipgloss.Style
	SelectedStyle         lipgloss.Style
	GenericTextStyle      lipgloss.Style
	StatusBarStyle        lipgloss.Style
	StatusBarMessageStyle lipgloss.Style
	StatusBarErrorStyle   lipgloss.Style

	ChromaStyle *chroma.Style
	Ellipsis    string
}

func New(theme string) *Theme {
	style := newChromaStyle(theme)

	var (
		genericStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Background))

		selectedStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.NameTag))

		subtleStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Comment))

		logoStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromTokenBg(chroma.Background)).
				Background(style.lipglossFromToken(chroma.NameTag)).
				Bold(true)

		errorTextStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.GenericDeleted))

		helpStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromTokenWithFactor(chroma.Background, 0.2)).
				Background(style.lipglossFromTokenBgWithFactor(chroma.Background, 0.2))

		statusBarStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Background)).
				Background(style.lipglossFromTokenBgWithFactor(chroma.Background, 0.1))

		statusBarMessageStyle = lipgloss.NewStyle().
					Foreground(style.lipglossFromTokenBg(chroma.Background)).
					Background(style.lipglossFromTokenWithFactor(chroma.NameTag, 0.15))

		statusBarErrorStyle = lipgloss.NewStyle().
					Foreground(style.lipglossFromTokenBg(chroma.Background)).
					Background(style.lipglossFromToken(chroma.GenericDeleted))

		windowStyle = genericStyle.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(style.lipglossFromTokenWithFactor(chroma.NameTag, 0.3)).
				Padding(0, 1)

		headerStyle = selectedStyle.Bold(true)

		inputStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.String)).
				Background(style.lipglossFromTokenBgWithFactor(chroma.Background, 0.08))

		editingStyle = inputStyle.Underline(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Keyword))

		focusedStyle = lipgloss.NewStyle().Reverse(true)

		disabledStyle = subtleStyle.Faint(true)

		tooltipStyle = subtleStyle.Italic(true)

		popupStyle = errorTextStyle.
				Border(lipgloss.RoundedBorder()).
				BorderForeground(style.lipglossFromToken(chroma.GenericDeleted)).
				Padding(0, 1)
	)

	return &Theme{
		WindowStyle:           windowStyle,
		TitleStyle:            logoStyle.Padding(0, 1),
		HeaderStyle:           headerStyle,
		LabelStyle:            genericStyle,
		InputStyle:            inputStyle,
		EditingStyle:          editingStyle,
		ButtonStyle:           buttonStyle,
		FocusedStyle:          focusedStyle,
		DisabledStyle:         disabledStyle,
		SeparatorStyle:        subtleStyle,
		TooltipStyle:          tooltipStyle,
		PopupStyle:            popupStyle,
		HelpStyle:             helpStyle,
		SubtleStyle:           subtleStyle,
		ErrorTextStyle:        errorTextStyle,
		LogoStyle:             logoStyle,
		SelectedStyle:         selectedStyle,
		GenericTextStyle:      genericStyle,
		StatusBarStyle:        statusBarStyle,
		StatusBarMessageStyle: statusBarMessageStyle,
		StatusBarErrorStyle:   statusBarErrorStyle,

		ChromaStyle: style.style,
		Ellipsis:    Ellipsis,
	}
}

// Register adds a chroma style that can then be selected by name.
func Register(name string, entries chroma.StyleEntries) error {
	if name == "" {
		return ErrInvalidName
	}

	customTheme, err := chroma.NewStyle(name, entries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterStyles, err)
	}

	styles.Register(customTheme)

	return nil
}

type chromaStyle struct {
	style *chroma.Style
}

func newChromaStyle(theme string) chromaStyle {
	s := styles.Get(getStyle(theme))
	if s == nil {
		s = styles.Fallback
	}

	return chromaStyle{style: s}
}

func (cs chromaStyle) lipglossFromToken(c chroma.TokenType) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Colour.String()) //nolint:misspell // Chroma naming.
}

func (cs chromaStyle) lipglossFromTokenBg(c chroma.TokenType) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Background.String())
}

func (cs chromaStyle) lipglossFromTokenWithFactor(c chroma.TokenType, factor float64) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Colour.BrightenOrDarken(factor).String()) //nolint:misspell // Chroma naming.
}

func (cs chromaStyle) lipglossFromTokenBgWithFactor(c chroma.TokenType, factor float64) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Background.BrightenOrDarken(factor).String())
}

func getStyle(style string) string {
	switch style {
	case "dark":
		return "github-dark"
	case "light":
		return "github"
	case "auto", "":
		return getDefaultStyle()
	default:
		return style
	}
}

func getDefaultStyle() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return "" // Fallback.
	}
	if termenv.HasDarkBackground() {
		return "github-dark"
	}

	return "github"
}
