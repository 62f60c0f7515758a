package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/browserhost/api"
	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/ui/highlight"
	"github.com/macropower/browserhost/pkg/ui/theme"
)

// ErrNotFormatted is returned by "config write --check" when the file would
// change.
var ErrNotFormatted = errors.New("configuration is not in canonical form")

func NewConfigCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the inlay configuration file",
	}

	cmd.AddCommand(
		newConfigShowCmd(ra),
		newConfigPathCmd(ra),
		newConfigSchemaCmd(),
		newConfigWriteCmd(ra),
	)

	return cmd
}

func newConfigShowCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(ra.Path())
			if err != nil {
				return err
			}

			data, err := c.MarshalYAML()
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			return printHighlighted(cmd.OutOrStdout(), highlight.YAML, string(data))
		},
	}
}

func newConfigPathCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustN(fmt.Fprintln(cmd.OutOrStdout(), ra.Path()))

			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := inlays.Schema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), string(data)))

			return nil
		},
	}
}

func newConfigWriteCmd(ra *RootArgs) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the configuration in canonical form, creating it if needed",
		Long: `Write the configuration in canonical form, creating it if needed.

With --check, print the changes that would be made instead, and fail if
there are any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ra.Path()

			before, err := api.ReadFile(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read %s: %w", path, err)
			}

			c, err := loadConfig(path)
			if err != nil {
				return err
			}

			after, err := c.MarshalYAML()
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			if bytes.Equal(before, after) {
				return nil
			}

			if check {
				diff := udiff.Unified(path, path, string(before), string(after))

				err := printHighlighted(cmd.OutOrStdout(), highlight.Diff, diff)
				if err != nil {
					return err
				}

				return ErrNotFormatted
			}

			err = api.WriteFileAtomic(path, after)
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only report changes")

	return cmd
}

// loadConfig reads the configuration at path, or returns an empty one when
// there is no file yet.
func loadConfig(path string) (*inlays.Config, error) {
	data, err := api.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return inlays.NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	c, err := inlays.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return c, nil
}

// printHighlighted writes content, highlighted when w is a terminal.
func printHighlighted(w io.Writer, lang highlight.Language, content string) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		mustN(io.WriteString(w, content))

		return nil
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}

	out, err := highlight.NewRenderer(theme.Default, lang, lang == highlight.YAML).Render(content, width)
	if err != nil {
		mustN(io.WriteString(w, content))

		return err
	}

	mustN(fmt.Fprintln(w, strings.TrimRight(out, "\n")))

	return nil
}
