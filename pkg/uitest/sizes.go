package uitest

// Size is a terminal size in cells.
type Size struct {
	Width  int
	Height int
}

var (
	// Compact is an 80x24 terminal, the smallest size the panel is laid out for.
	Compact = Size{Width: 80, Height: 24}
	// Standard is a 120x40 terminal.
	Standard = Size{Width: 120, Height: 40}
)
