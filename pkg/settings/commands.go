package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/macropower/browserhost/pkg/command"
)

const (
	// CommandName is the slash command that controls the settings panel.
	CommandName = "/pbrowser"
	// CommandHelp is the help text of [CommandName].
	CommandHelp = "Open BrowserHost configuration pane."
)

var errUsage = errors.New("usage: /pbrowser [open|close|add|remove <id>|reload <id>|debug <id>]")

// RegisterCommands registers [CommandName] with d. Without arguments the
// command toggles the panel.
func (m *Manager) RegisterCommands(d *command.Dispatcher) error {
	err := d.AddHandler(CommandName, command.Info{
		HelpMessage: CommandHelp,
		ShowInHelp:  true,
		Handler:     m.handleCommand,
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", CommandName, err)
	}

	return nil
}

// UnregisterCommands removes [CommandName] from d.
func (m *Manager) UnregisterCommands(d *command.Dispatcher) {
	d.RemoveHandler(CommandName)
}

func (m *Manager) handleCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		m.Toggle()
		return nil
	}

	sub, rest := args[0], args[1:]

	switch sub {
	case "open":
		m.Open()
		return nil
	case "close":
		m.Close()
		return nil
	case "add":
		_, err := m.AddInlay(ctx)
		return err
	}

	if len(rest) != 1 {
		return errUsage
	}

	id := rest[0]

	switch sub {
	case "remove":
		return m.RemoveInlay(ctx, id)
	case "reload":
		return m.ReloadInlay(ctx, id)
	case "debug":
		return m.DebugInlay(ctx, id)
	}

	return errUsage
}
