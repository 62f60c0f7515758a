package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/macropower/browserhost/pkg/expr"
	"github.com/macropower/browserhost/pkg/settings"
)

// ErrorHandler prints err for fang, followed by a hint when one applies.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))
	mustN(fmt.Fprintln(w, lipgloss.NewStyle().MarginLeft(2).Render(err.Error())))
	mustN(fmt.Fprintln(w))

	hint := errorHint(err)
	if hint == "" {
		return
	}

	mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(
		lipgloss.Left,
		styles.ErrorText.UnsetWidth().Render("Try"),
		styles.Program.Flag.Render(hint),
		styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render(hintSuffix(err)),
	)))
	mustN(fmt.Fprintln(w))
}

func errorHint(err error) string {
	switch {
	case isUsageError(err):
		return "--help"
	case errors.Is(err, settings.ErrInlayNotFound):
		return cmdName + " inlays list"
	case errors.Is(err, ErrNotConfirmed):
		return "--yes"
	case errors.Is(err, expr.ErrNotBool):
		return "--filter 'name == \"Timers\"'"
	case errors.Is(err, ErrNotFormatted):
		return cmdName + " config write"
	}

	return ""
}

func hintSuffix(err error) string {
	switch {
	case errors.Is(err, settings.ErrInlayNotFound):
		return "to see inlay IDs."
	case errors.Is(err, ErrNotConfirmed):
		return "to skip confirmation."
	case errors.Is(err, expr.ErrNotBool):
		return "with an expression that returns a bool."
	case errors.Is(err, ErrNotFormatted):
		return "to fix it."
	}

	return "for usage."
}

// XXX: this is a hack to detect usage errors.
// See: https://github.com/spf13/cobra/pull/2266
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts ",
		"requires at least",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
