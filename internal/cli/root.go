package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/settings"
	"github.com/macropower/browserhost/pkg/store"
	"github.com/macropower/browserhost/pkg/trace"
)

const (
	cmdName = "browserhost"
	cmdDesc = `Manage browser inlays drawn over the game, and host their settings panel.`
)

type RootArgs struct {
	shutdownTracing trace.ShutdownFunc

	LogLevel     string
	LogFormat    string
	ConfigPath   string
	OTLPEndpoint string
	StoreTimeout time.Duration
	OTLPInsecure bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the inlay configuration file")
	cmd.PersistentFlags().
		DurationVar(&ra.StoreTimeout, "store-timeout", settings.DefaultStoreTimeout, "Timeout for reading and writing the configuration")
	cmd.PersistentFlags().
		StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/gRPC endpoint")
	cmd.PersistentFlags().
		BoolVar(&ra.OTLPInsecure, "otlp-insecure", false, "Connect to the OTLP endpoint without TLS")

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

// Path returns the configuration file path.
func (ra *RootArgs) Path() string {
	if ra.ConfigPath != "" {
		return ra.ConfigPath
	}

	return inlays.GetPath()
}

// Store returns the file store at [RootArgs.Path].
func (ra *RootArgs) Store() *store.FileStore {
	return store.NewFileStore(ra.Path())
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	runArgs := NewRunArgs(args)

	runCmd := NewRunCmd(runArgs)
	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
		Args:               runCmd.Args,
		RunE:               runCmd.RunE,
	}

	args.AddFlags(cmd)
	runArgs.AddFlags(cmd)
	cmd.AddCommand(
		runCmd,
		NewInlaysCmd(args),
		NewConfigCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		err := log.Setup(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("setup logging: %w", err)
		}

		ra.shutdownTracing, err = trace.Setup(cmd.Context(), trace.WithEndpoint(ra.OTLPEndpoint, ra.OTLPInsecure))
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdownTracing == nil {
			return nil
		}

		err := ra.shutdownTracing(cmd.Context())
		if err != nil {
			return fmt.Errorf("shutdown tracing: %w", err)
		}

		return nil
	}
}

// newManager creates a settings manager over s and waits for it to load.
func (ra *RootArgs) newManager(ctx context.Context, s store.Store, opts ...settings.Opt) (*settings.Manager, error) {
	opts = append([]settings.Opt{settings.WithStoreTimeout(ra.StoreTimeout)}, opts...)

	m := settings.NewManager(s, opts...)
	m.Initialise(ctx)

	err := m.WaitReady(ctx)
	if err != nil {
		m.Dispose()

		return nil, fmt.Errorf("load settings: %w", err)
	}

	return m, nil
}
