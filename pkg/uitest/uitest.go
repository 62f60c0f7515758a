package uitest

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/teatest"

	tea "github.com/charmbracelet/bubbletea"
)

const waitTimeout = 3 * time.Second

// NewTestModel starts m in a teatest program with a terminal of the given
// size.
func NewTestModel(tb testing.TB, m tea.Model, size Size) *teatest.TestModel {
	tb.Helper()

	return teatest.NewTestModel(tb, m, teatest.WithInitialTermSize(size.Width, size.Height))
}

// WaitFor waits until the program output satisfies condition.
func WaitFor(tb testing.TB, r io.Reader, condition func([]byte) bool) {
	tb.Helper()

	teatest.WaitFor(tb, r, condition,
		teatest.WithDuration(waitTimeout),
		teatest.WithCheckInterval(10*time.Millisecond),
	)
}

// Quit sends key to the program and waits for it to exit.
func Quit(tb testing.TB, tm *teatest.TestModel, key tea.KeyMsg) {
	tb.Helper()

	tm.Send(key)
	tm.WaitFinished(tb, teatest.WithFinalTimeout(waitTimeout))
}
