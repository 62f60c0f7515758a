// Package command dispatches slash commands typed by the user.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/browserhost/pkg/log"
)

var (
	// ErrUnknownCommand is returned for command lines with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrInvalidName is returned for names that do not start with "/".
	ErrInvalidName = errors.New("command names must start with /")
)

// Handler runs a command. args excludes the command name.
type Handler func(ctx context.Context, args []string) error

// Info describes a registered command.
type Info struct {
	Handler Handler
	Name    string
	// HelpMessage is shown in [Dispatcher.Help].
	HelpMessage string
	ShowInHelp  bool
}

// Dispatcher maps command names to handlers. Command lines are split into
// arguments with shell quoting rules.
type Dispatcher struct {
	tracer   trace.Tracer
	commands map[string]Info
	mu       sync.RWMutex
}

// NewDispatcher creates a new [Dispatcher].
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		tracer:   otel.Tracer("command"),
		commands: make(map[string]Info),
	}
}

// AddHandler registers info under name. Names are matched
// case-insensitively.
func (d *Dispatcher) AddHandler(name string, info Info) error {
	if !strings.HasPrefix(name, "/") || len(name) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if info.Handler == nil {
		return fmt.Errorf("%s: nil handler", name)
	}

	key := strings.ToLower(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.commands[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}

	info.Name = name
	d.commands[key] = info

	return nil
}

// RemoveHandler unregisters name. It reports whether it was registered.
func (d *Dispatcher) RemoveHandler(name string) bool {
	key := strings.ToLower(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.commands[key]
	delete(d.commands, key)

	return ok
}

// Dispatch parses line and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) error {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false

	args, err := p.Parse(strings.TrimSpace(line))
	if err != nil {
		return fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	d.mu.RLock()
	info, ok := d.commands[strings.ToLower(args[0])]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}

	ctx, span := d.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("command", info.Name),
		attribute.Int("args", len(args)-1),
	))
	defer span.End()

	log.WithContext(ctx).DebugContext(ctx, "dispatching command",
		slog.String("command", info.Name),
		slog.Any("args", args[1:]),
	)

	err = info.Handler(ctx, args[1:])
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("%s: %w", info.Name, err)
	}

	return nil
}

// Help returns the commands shown in help, sorted by name.
func (d *Dispatcher) Help() []Info {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Info, 0, len(d.commands))
	for _, info := range d.commands {
		if info.ShowInHelp {
			out = append(out, info)
		}
	}

	slices.SortFunc(out, func(a, b Info) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out
}
