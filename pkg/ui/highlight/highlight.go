// Package highlight renders YAML and diffs for the terminal.
package highlight

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/cellbuf"
	"github.com/muesli/termenv"

	"github.com/macropower/browserhost/pkg/ui/theme"
)

const wrapOnCharacters = " /-"

// Language selects the lexer used by a [Renderer].
type Language string

const (
	YAML Language = "YAML"
	Diff Language = "Diff"
)

// Renderer highlights source text with a chroma lexer.
type Renderer struct {
	lexer       chroma.Lexer
	formatter   chroma.Formatter
	style       *chroma.Style
	theme       *theme.Theme
	lineNumbers bool
}

// NewRenderer creates a new [Renderer] for lang. The formatter follows the
// terminal's color profile.
func NewRenderer(t *theme.Theme, lang Language, lineNumbers bool) *Renderer {
	lexer := lexers.Get(string(lang))
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatterName := "noop"
	switch termenv.ColorProfile() {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"
	}

	return &Renderer{
		lexer:       chroma.Coalesce(lexer),
		formatter:   formatters.Get(formatterName),
		style:       t.ChromaStyle,
		theme:       t,
		lineNumbers: lineNumbers,
	}
}

// SetFormatter sets the chroma formatter explicitly.
// This is primarily useful for testing.
func (r *Renderer) SetFormatter(name string) {
	r.formatter = formatters.Get(name)
}

// Render highlights content and wraps it to width. A width of zero
// disables wrapping.
func (r *Renderer) Render(content string, width int) (string, error) {
	iterator, err := r.lexer.Tokenise(nil, content)
	if err != nil {
		return "", fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = r.formatter.Format(buf, r.style, iterator)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		out = append(out, r.formatLine(line, i+1, width))
	}

	return strings.Join(out, "\n"), nil
}

func (r *Renderer) formatLine(line string, lineNum, width int) string {
	prefix, cont := "", ""
	if r.lineNumbers {
		prefix = r.theme.SubtleStyle.Render(fmt.Sprintf("%4d  ", lineNum))
		cont = r.theme.SubtleStyle.Render("   -  ")
		width = max(0, width-6)
	}

	if width <= 0 {
		return prefix + line
	}

	trunc := lipgloss.NewStyle().MaxWidth(width).Render

	wrapped := strings.Split(cellbuf.Wrap(line, width, wrapOnCharacters), "\n")
	for i, ln := range wrapped {
		if i == 0 {
			wrapped[i] = prefix + trunc(ln)
		} else {
			wrapped[i] = cont + trunc(ln)
		}
	}

	return strings.Join(wrapped, "\n")
}
