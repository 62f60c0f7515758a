package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/command"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/mcp"
	"github.com/macropower/browserhost/pkg/settings"
	"github.com/macropower/browserhost/pkg/store"
	"github.com/macropower/browserhost/pkg/ui/tui"
	"github.com/macropower/browserhost/pkg/version"
)

const (
	cmdExamples = `  # Open the settings panel:
  browserhost

  # Pick up edits made to the configuration file by other programs:
  browserhost --watch

  # Also let agents manage inlays over MCP:
  browserhost --serve-mcp localhost:8080

  # Serve MCP over stdio (when stdout is not a terminal):
  browserhost | my-agent

  # List inlays matching a CEL expression:
  browserhost inlays list --filter 'urlHost(url) == "example.com"'`

	logBufferSize = 100
)

type RunArgs struct {
	*RootArgs

	ServeMCP string
	Watch    bool
	Closed   bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ServeMCP, "serve-mcp", "", "Serve the MCP server at the specified address")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch the configuration file for changes made by other programs")
	cmd.Flags().BoolVar(&ra.Closed, "closed", false, "Start with the settings panel closed")
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Default command, hosts the settings panel",
		Example: cmdExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	var logBuf *log.CircularBuffer

	if interactive {
		// The TUI owns the terminal; logs are shown after it exits.
		logBuf = log.NewCircularBuffer(logBufferSize)

		err := log.Setup(logBuf, ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}

		defer flushLogs(cmd.ErrOrStderr(), logBuf)
	}

	slog.DebugContext(ctx, "starting", slog.String("version", version.Info()), slog.Bool("interactive", interactive))

	bus := event.NewBus()
	bus.Subscribe(event.LogHandler(slog.Default()))

	fs := ra.Store()

	m, err := ra.newManager(ctx, fs, settings.WithBus(bus))
	if err != nil {
		return err
	}

	defer shutdown(ctx, m)

	if ra.Watch {
		err := watch(ctx, fs, m)
		if err != nil {
			return err
		}
	}

	if !interactive {
		return serveMCP(ctx, ra.ServeMCP, m)
	}

	if ra.ServeMCP != "" {
		go func() {
			err := serveMCP(ctx, ra.ServeMCP, m)
			if err != nil {
				slog.ErrorContext(ctx, "MCP server failed", slog.Any("err", err))
			}
		}()
	}

	d := command.NewDispatcher()

	err = m.RegisterCommands(d)
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	defer m.UnregisterCommands(d)

	if !ra.Closed {
		m.Open()
	}

	model := tui.NewModel(ctx, m, tui.WithDispatcher(d), tui.WithEvents(bus))

	_, err = tui.NewProgram(model).Run()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "run UI", slog.Any("err", err))

		return fmt.Errorf("ui program failure: %w", err)
	}

	return nil
}

// watch reconciles m with changes other programs make to the store's file.
func watch(ctx context.Context, fs *store.FileStore, m *settings.Manager) error {
	w, err := store.NewWatcher(fs, func(ctx context.Context, c *inlays.Config) {
		err := m.Reconcile(ctx, c)
		if err != nil {
			log.WithContext(ctx).WarnContext(ctx, "reconcile external change", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", fs.Path(), err)
	}

	go func() {
		<-ctx.Done()

		err := w.Close()
		if err != nil {
			slog.Warn("close watcher", slog.Any("err", err))
		}
	}()

	go w.Run(ctx)

	return nil
}

func serveMCP(ctx context.Context, address string, m *settings.Manager) error {
	s, err := mcp.NewServer(address, m)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	err = s.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}

// shutdown writes any pending edits, even when ctx has been canceled.
func shutdown(ctx context.Context, m *settings.Manager) {
	ctx = context.WithoutCancel(ctx)

	err := m.Flush(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "save pending edits", slog.Any("err", err))
	}

	m.Dispose()
}

func flushLogs(w io.Writer, buf *log.CircularBuffer) {
	slog.Debug("flush logs to console",
		slog.Int("count", buf.Size()),
	)

	_, err := buf.WriteTo(w)
	if err != nil {
		panic(err)
	}
}
