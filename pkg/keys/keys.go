// Package keys describes key bindings for the terminal settings panel and
// renders them as help text.
package keys

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

// Ellipsis is appended to truncated help descriptions.
const Ellipsis = "…"

// ErrDuplicateKey is returned when one key code is bound more than once.
var ErrDuplicateKey = errors.New("duplicate key binding")

// Key is a keyboard key with an optional display alias.
type Key struct {
	// Code is the key as reported by Bubble Tea, e.g. "ctrl+c".
	Code string
	// Alias replaces Code in help text.
	Alias string
	// Hidden keys match but are left out of help text.
	Hidden bool
}

type KeyOpt func(k *Key)

func New(code string, opts ...KeyOpt) Key {
	k := &Key{Code: code}
	for _, opt := range opts {
		opt(k)
	}

	return *k
}

func WithAlias(alias string) KeyOpt {
	return func(k *Key) {
		k.Alias = alias
	}
}

func Hidden() KeyOpt {
	return func(k *Key) {
		k.Hidden = true
	}
}

func (k Key) String() string {
	if k.Alias != "" {
		return k.Alias
	}

	return k.Code
}

// KeyBind is an action and the keys that trigger it.
type KeyBind struct {
	Description string
	Keys        []Key
}

func NewBind(description string, keys ...Key) KeyBind {
	return KeyBind{
		Description: description,
		Keys:        keys,
	}
}

// String joins the visible keys with "/".
func (kb KeyBind) String() string {
	keys := []string{}
	for _, k := range kb.Keys {
		if !k.Hidden {
			keys = append(keys, k.String())
		}
	}

	return strings.Join(keys, "/")
}

// StringRow renders the binding as a help row, padding the keys to keyWidth
// and fitting the description into descWidth.
func (kb KeyBind) StringRow(keyWidth, descWidth int) string {
	keys := kb.String()
	if keys == "" {
		return "" // No keys, or all hidden.
	}

	desc := truncate.StringWithTail(kb.Description, uint(max(0, descWidth-2)), Ellipsis) //nolint:gosec // Clamped.

	keySpaces := strings.Repeat(" ", max(0, keyWidth-ansi.PrintableRuneWidth(keys)))
	descSpaces := strings.Repeat(" ", max(0, descWidth-ansi.PrintableRuneWidth(desc)-2))

	return fmt.Sprintf("%s%s  %s%s", keys, keySpaces, desc, descSpaces)
}

// Match reports whether key triggers the binding.
func (kb KeyBind) Match(key string) bool {
	return slices.ContainsFunc(kb.Keys, func(k Key) bool {
		return k.Code == key
	})
}

// IsTextInputAction reports whether key should be typed into a focused text
// field rather than handled as a binding.
func IsTextInputAction(key string) bool {
	alwaysNonInput := []string{
		"esc", "enter", "up", "down", "tab", "shift+tab", "pgup", "pgdown", "ctrl+c",
	}

	return !slices.Contains(alwaysNonInput, key)
}

// KeyMap holds the bindings of the settings panel.
type KeyMap struct {
	Up          KeyBind
	Down        KeyBind
	PageUp      KeyBind
	PageDown    KeyBind
	Activate    KeyBind
	Remove      KeyBind
	TogglePanel KeyBind
	Command     KeyBind
	Copy        KeyBind
	Cancel      KeyBind
	Help        KeyBind
	Quit        KeyBind
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          NewBind("previous", New("up", WithAlias("↑")), New("k"), New("shift+tab", Hidden())),
		Down:        NewBind("next", New("down", WithAlias("↓")), New("j"), New("tab", Hidden())),
		PageUp:      NewBind("page up", New("pgup"), New("ctrl+u", Hidden())),
		PageDown:    NewBind("page down", New("pgdown"), New("ctrl+d", Hidden())),
		Activate:    NewBind("press/toggle/edit", New("enter", WithAlias("⏎")), New(" ", WithAlias("space"))),
		Remove:      NewBind("remove inlay", New("x"), New("delete", Hidden())),
		TogglePanel: NewBind("show/hide panel", New("ctrl+o")),
		Command:     NewBind("run command", New("/")),
		Copy:        NewBind("copy value", New("ctrl+y")),
		Cancel:      NewBind("close panel", New("esc")),
		Help:        NewBind("toggle help", New("?")),
		Quit:        NewBind("quit", New("q"), New("ctrl+c", Hidden())),
	}
}

// Columns returns the bindings grouped for help text.
func (km KeyMap) Columns() [][]KeyBind {
	return [][]KeyBind{
		{km.Up, km.Down, km.PageUp, km.PageDown},
		{km.Activate, km.Remove, km.Copy, km.Command},
		{km.TogglePanel, km.Cancel, km.Help, km.Quit},
	}
}

// Validate returns an error for every key code bound more than once.
func (km KeyMap) Validate() error {
	var errs []error

	seen := make(map[string]string)

	for _, col := range km.Columns() {
		for _, kb := range col {
			for _, key := range kb.Keys {
				if prev, ok := seen[key.Code]; ok {
					errs = append(errs, fmt.Errorf("%w: %q used by %q and %q",
						ErrDuplicateKey, key.Code, prev, kb.Description))
				}

				seen[key.Code] = kb.Description
			}
		}
	}

	return errors.Join(errs...)
}

// KeyBindRenderer lays out bindings in columns.
type KeyBindRenderer struct {
	columns [][]KeyBind
}

func (kbr *KeyBindRenderer) AddColumn(kbs ...KeyBind) {
	if len(kbs) == 0 {
		return
	}

	kbr.columns = append(kbr.columns, kbs)
}

// Render returns the columns side by side, fitted into width.
func (kbr *KeyBindRenderer) Render(width int) string {
	numCols := len(kbr.columns)
	if numCols == 0 {
		return ""
	}

	colWidth := max(6, width/numCols-2)

	colRows := make([][]string, numCols)
	maxRows := 0

	for i, col := range kbr.columns {
		colRows[i] = stringColumn(colWidth, col...)
		maxRows = max(maxRows, len(colRows[i]))
	}

	lines := make([]string, 0, maxRows)

	for row := range maxRows {
		var sb strings.Builder

		for col := range colRows {
			content := strings.Repeat(" ", colWidth)
			if row < len(colRows[col]) {
				content = colRows[col][row]
			}

			sb.WriteString(" " + content + " ")
		}

		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}

	return strings.Join(lines, "\n")
}

func stringColumn(width int, kbs ...KeyBind) []string {
	maxKeyWidth := 0
	for _, kb := range kbs {
		maxKeyWidth = max(maxKeyWidth, ansi.PrintableRuneWidth(kb.String()))
	}

	rows := []string{}

	for _, kb := range kbs {
		if row := kb.StringRow(maxKeyWidth, width-maxKeyWidth); row != "" {
			rows = append(rows, row)
		}
	}

	return rows
}
