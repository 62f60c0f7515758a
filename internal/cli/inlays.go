package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/event"
	"github.com/macropower/browserhost/pkg/expr"
	"github.com/macropower/browserhost/pkg/log"
	"github.com/macropower/browserhost/pkg/search"
	"github.com/macropower/browserhost/pkg/settings"
	"github.com/macropower/browserhost/pkg/ui/theme"
	"github.com/macropower/browserhost/pkg/yaml"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
)

var (
	ErrNotConfirmed = errors.New("not confirmed")
	ErrOutputFormat = errors.New("unknown output format")
)

// inlayCmd runs fn against a loaded manager and saves what it changed.
func inlayCmd(ra *RootArgs, fn func(ctx context.Context, m *settings.Manager) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		bus := event.NewBus()
		bus.Subscribe(event.LogHandler(log.WithContext(ctx)))

		m, err := ra.newManager(ctx, ra.Store(), settings.WithBus(bus))
		if err != nil {
			return err
		}
		defer m.Dispose()

		err = fn(ctx, m)
		if err != nil {
			return err
		}

		err = m.Flush(ctx)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}

		return nil
	}
}

func NewInlaysCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inlays",
		Aliases: []string{"inlay"},
		Short:   "List and change configured inlays",
	}

	cmd.AddCommand(
		newInlaysListCmd(ra),
		newInlaysAddCmd(ra),
		newInlaysRemoveCmd(ra),
		newInlaysRenameCmd(ra),
		newInlaysSetCmd(ra),
		newInlaysActionCmd(ra, "navigate", "Navigate an inlay to its URL", (*settings.Manager).NavigateInlay),
		newInlaysActionCmd(ra, "reload", "Reload an inlay", (*settings.Manager).ReloadInlay),
		newInlaysActionCmd(ra, "debug", "Open dev tools for an inlay", (*settings.Manager).DebugInlay),
	)

	return cmd
}

func newInlaysListCmd(ra *RootArgs) *cobra.Command {
	var filter, query, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inlays",
		Example: `  # Inlays that pass mouse events through:
  browserhost inlays list --filter 'clickThrough'

  # Fuzzy search by name and URL:
  browserhost inlays list --search timr`,
		Args: cobra.NoArgs,
	}

	cmd.RunE = inlayCmd(ra, func(_ context.Context, m *settings.Manager) error {
		list := m.Inlays()

		if filter != "" {
			f, err := expr.NewFilter(filter)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}

			list, err = f.Apply(list)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
		}

		if query != "" {
			matches := search.Inlays(query, list)

			list = make([]inlays.Inlay, 0, len(matches))
			for _, match := range matches {
				list = append(list, match.Inlay)
			}
		}

		return printInlays(cmd.OutOrStdout(), output, list)
	})

	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression inlays must match")
	cmd.Flags().StringVar(&query, "search", "", "Fuzzy search inlay names and URLs")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format, one of: [table, yaml]")

	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{outputTable, outputYAML}, cobra.ShellCompDirectiveNoFileComp),
	))

	return cmd
}

func printInlays(w io.Writer, output string, list []inlays.Inlay) error {
	switch output {
	case outputYAML:
		b, err := yaml.Marshal(list)
		if err != nil {
			return fmt.Errorf("marshal inlays: %w", err)
		}

		mustN(w.Write(b))

	case outputTable:
		mustN(fmt.Fprintln(w, inlayTable(theme.Default, list)))

	default:
		return fmt.Errorf("%w: %q", ErrOutputFormat, output)
	}

	return nil
}

func inlayTable(t *theme.Theme, list []inlays.Inlay) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.SubtleStyle).
		Headers("ID", "NAME", "URL", "LOCKED", "CLICK THROUGH").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.HeaderStyle.Padding(0, 1)
			}

			return t.GenericTextStyle.Padding(0, 1)
		})

	for _, inlay := range list {
		tbl.Row(
			inlay.ID,
			inlay.Name,
			inlay.URL,
			strconv.FormatBool(inlay.EffectiveLocked()),
			strconv.FormatBool(inlay.ClickThrough),
		)
	}

	return tbl.String()
}

func newInlaysAddCmd(ra *RootArgs) *cobra.Command {
	var e inlayEdit

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an inlay",
		Example: `  browserhost inlays add --name Timers --url https://example.com/timers`,
		Args:    cobra.NoArgs,
	}

	cmd.RunE = inlayCmd(ra, func(ctx context.Context, m *settings.Manager) error {
		inlay, err := m.AddInlay(ctx)
		if err != nil {
			return err
		}

		err = e.apply(ctx, cmd, m, inlay.ID)
		if err != nil {
			return err
		}

		mustN(fmt.Fprintln(cmd.OutOrStdout(), inlay.ID))

		return nil
	})

	e.addFlags(cmd)

	return cmd
}

func newInlaysRemoveCmd(ra *RootArgs) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an inlay",
		Args:    cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := args[0]

		return inlayCmd(ra, func(ctx context.Context, m *settings.Manager) error {
			inlay, err := m.Inlay(id)
			if err != nil {
				return err
			}

			if !yes {
				err := confirm(ctx, cmd, fmt.Sprintf("Remove inlay %q (%s)?", inlay.Name, inlay.ID))
				if err != nil {
					return err
				}
			}

			return m.RemoveInlay(ctx, id)
		})(cmd, args)
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// confirm asks the user to confirm an action. It fails without asking when
// stdin is not a terminal.
func confirm(ctx context.Context, cmd *cobra.Command, title string) error {
	if f, ok := cmd.InOrStdin().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("%w: stdin is not a terminal, use --yes", ErrNotConfirmed)
	}

	ok := false

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Remove").
			Negative("Keep").
			Value(&ok),
	)).
		WithTheme(theme.HuhTheme(theme.Default)).
		WithInput(cmd.InOrStdin()).
		WithOutput(cmd.ErrOrStderr())

	err := form.RunWithContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}

	if !ok {
		return ErrNotConfirmed
	}

	return nil
}

func newInlaysRenameCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename an inlay",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return inlayCmd(ra, func(ctx context.Context, m *settings.Manager) error {
			return m.RenameInlay(ctx, args[0], args[1])
		})(cmd, args)
	}

	return cmd
}

func newInlaysSetCmd(ra *RootArgs) *cobra.Command {
	var e inlayEdit

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change an inlay's settings",
		Example: `  # Let mouse events pass through:
  browserhost inlays set 0b7c --click-through

  # Point at a new page and load it:
  browserhost inlays set 0b7c --url https://example.com --navigate`,
		Args: cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return inlayCmd(ra, func(ctx context.Context, m *settings.Manager) error {
			_, err := m.Inlay(args[0])
			if err != nil {
				return err
			}

			return e.apply(ctx, cmd, m, args[0])
		})(cmd, args)
	}

	e.addFlags(cmd)
	cmd.Flags().BoolVar(&e.navigate, "navigate", false, "Navigate to the URL after changing it")

	return cmd
}

func newInlaysActionCmd(
	ra *RootArgs,
	use, short string,
	action func(*settings.Manager, context.Context, string) error,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return inlayCmd(ra, func(ctx context.Context, m *settings.Manager) error {
			return action(m, ctx, args[0])
		})(cmd, args)
	}

	return cmd
}

// inlayEdit holds field flags. Only flags that were set are applied.
type inlayEdit struct {
	name         string
	url          string
	locked       bool
	clickThrough bool
	navigate     bool
}

func (e *inlayEdit) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.name, "name", "", "Display name")
	cmd.Flags().StringVar(&e.url, "url", "", "URL to show")
	cmd.Flags().BoolVar(&e.locked, "locked", false, "Prevent moving and resizing")
	cmd.Flags().BoolVar(&e.clickThrough, "click-through", false, "Let mouse events pass through (implies --locked)")
}

func (e *inlayEdit) apply(ctx context.Context, cmd *cobra.Command, m *settings.Manager, id string) error {
	flags := cmd.Flags()

	var errs []error

	if flags.Changed("name") {
		errs = append(errs, m.RenameInlay(ctx, id, e.name))
	}
	if flags.Changed("url") {
		errs = append(errs, m.SetInlayURL(ctx, id, e.url, e.navigate))
	}
	if flags.Changed("locked") {
		errs = append(errs, m.SetInlayLocked(ctx, id, e.locked))
	}
	if flags.Changed("click-through") {
		errs = append(errs, m.SetInlayClickThrough(ctx, id, e.clickThrough))
	}

	return errors.Join(errs...)
}
