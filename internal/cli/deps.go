package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/plotdeck/plotdeck/pkg/io"
	"github.com/plotdeck/plotdeck/pkg/pipeline"
)

// depsCommand creates the deps command for drawing the dataset graph.
func (c *CLI) depsCommand() *cobra.Command {
	var (
		format  string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "deps [script]",
		Short: "Draw the dataset dependency graph",
		Long: `Draw the dataset dependency graph.

Every derived dataset depends on the datasets its formulas read; the
deps command renders that graph. The default output is Graphviz DOT
text on stdout. With -f svg, png, or pdf the graph is laid out and
written next to the script as <script>_deps.<format>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateDepsFormat(format); err != nil {
				return err
			}
			return c.runDeps(cmd.Context(), args[0], format, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot (default), svg, png, pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout for dot, <script>_deps.<format> otherwise)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runDeps loads the script and renders its dependency diagram.
func (c *CLI) runDeps(ctx context.Context, input, format, output string, noCache bool) error {
	d, err := pkgio.ImportScript(input, c.Logger)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, err := runner.Deps(ctx, d.Store(), format)
	if err != nil {
		return err
	}

	// DOT without an explicit output goes to stdout for piping.
	if output == "" && format == pipeline.FormatDOT {
		fmt.Print(string(data))
		return nil
	}

	path := output
	if path == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		path = fmt.Sprintf("%s_deps.%s", base, format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Dependency graph rendered")
	printFile(path)
	return nil
}
