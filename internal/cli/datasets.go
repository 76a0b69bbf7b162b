package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/plotdeck/plotdeck/pkg/dataset"
	pkgio "github.com/plotdeck/plotdeck/pkg/io"
)

// datasetsCommand creates the datasets command for listing a script's data.
func (c *CLI) datasetsCommand() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "datasets [script]",
		Short: "List a script's datasets",
		Long: `List a script's datasets.

Each dataset is shown with its kind, point count, and source: raw
datasets carry literal values, derived datasets show the formula of
their data part. Datasets whose formulas fail to evaluate are marked
and the failure is printed below the table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDatasets(cmd.Context(), args[0], tag)
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "only list datasets carrying this tag")

	return cmd
}

// runDatasets loads the script and prints the dataset table.
func (c *CLI) runDatasets(ctx context.Context, input, tag string) error {
	d, err := pkgio.ImportScript(input, c.Logger)
	if err != nil {
		return err
	}
	if _, err := d.Store().Settle(ctx); err != nil {
		return err
	}

	infos := d.Store().List()
	if tag != "" {
		infos = slices.DeleteFunc(infos, func(info dataset.Info) bool {
			return !slices.Contains(info.Tags, tag)
		})
	}
	if len(infos) == 0 {
		printInfo("No datasets")
		return nil
	}

	broken := make(map[int]bool)
	rows := make([][]string, 0, len(infos))
	for i, info := range infos {
		rows = append(rows, []string{
			info.Name,
			info.Kind.String(),
			fmt.Sprintf("%d", info.Points),
			datasetSource(info),
			strings.Join(info.Tags, ", "),
		})
		if info.EvalErr != "" {
			broken[i] = true
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Kind", "Points", "Source", "Tags").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if broken[row] {
				return StyleWarning
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		})
	fmt.Println(t.Render())

	for _, info := range infos {
		if info.EvalErr != "" {
			printWarning("dataset %s: %s", info.Name, info.EvalErr)
		}
	}
	return nil
}

// datasetSource describes where a dataset's values come from.
func datasetSource(info dataset.Info) string {
	if !info.Derived {
		return "raw"
	}
	src := info.Def.Data
	var extra []string
	if info.Def.Serr != "" {
		extra = append(extra, "serr")
	}
	if info.Def.Perr != "" {
		extra = append(extra, "perr")
	}
	if info.Def.Nerr != "" {
		extra = append(extra, "nerr")
	}
	if len(extra) > 0 {
		src += " (+" + strings.Join(extra, ",") + ")"
	}
	return src
}
