// Package overlay draws a box centered over rendered terminal content.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
	"github.com/muesli/reflow/truncate"

	"github.com/macropower/browserhost/pkg/ui/theme"
)

const (
	defaultMinWidth = 16
	// Rows kept free of the overlay, above and below it.
	verticalMargin = 4
)

// Overlay places boxes over a view of a fixed size.
type Overlay struct {
	theme    *theme.Theme
	width    int
	height   int
	minWidth int
}

type OverlayOpt func(*Overlay)

// New creates a new [Overlay].
func New(t *theme.Theme, opts ...OverlayOpt) *Overlay {
	o := &Overlay{
		theme:    t,
		minWidth: defaultMinWidth,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithMinWidth sets the minimum width of the box, in cells.
func WithMinWidth(minWidth int) OverlayOpt {
	return func(o *Overlay) {
		o.minWidth = minWidth
	}
}

// SetSize sets the size of the view the box is placed on.
func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// Place draws fg in a box styled with style, centered on bg. The box takes
// widthFraction of the view's width. Content that does not fit is cut off
// with a note.
func (o *Overlay) Place(bg, fg string, widthFraction float64, style lipgloss.Style) string {
	boxWidth := clamp(int(float64(o.width)*widthFraction), min(o.minWidth, o.width), o.width)
	textWidth := max(1, boxWidth-style.GetHorizontalFrameSize())

	fgLines := strings.Split(cellbuf.Wrap(fg, textWidth, " /-"), "\n")

	maxLines := o.height - 2*verticalMargin
	if maxLines < 1 {
		return bg
	}

	if len(fgLines) > maxLines {
		note := truncate.StringWithTail("message truncated", uint(textWidth), o.theme.Ellipsis) //nolint:gosec // Positive.
		fgLines = append(fgLines[:max(0, maxLines-2)], "", o.theme.SubtleStyle.Render(note))
	}

	box := style.Width(textWidth).Render(strings.Join(fgLines, "\n"))

	return placeCenter(bg, box)
}

// placeCenter splices box into the middle of bg, line by line.
func placeCenter(bg, box string) string {
	boxLines, boxWidth := getLines(box)
	bgLines, bgWidth := getLines(bg)

	x := max(0, bgWidth-boxWidth) / 2
	y := max(0, len(bgLines)-len(boxLines)) / 2

	var b strings.Builder

	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}

		if i < y || i >= y+len(boxLines) {
			b.WriteString(bgLine)

			continue
		}

		left := ansi.Truncate(bgLine, x, "")
		b.WriteString(left)
		b.WriteString(strings.Repeat(" ", x-ansi.StringWidth(left)))

		boxLine := boxLines[i-y]
		b.WriteString(boxLine)

		b.WriteString(ansi.TruncateLeft(bgLine, x+ansi.StringWidth(boxLine), ""))
	}

	return b.String()
}

func clamp(v, lower, upper int) int {
	return min(max(v, lower), upper)
}

// getLines splits s into lines, also returning the width of the widest.
func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")

	widest := 0
	for _, l := range lines {
		widest = max(widest, ansi.StringWidth(l))
	}

	return lines, widest
}
