package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	pkgio "github.com/plotdeck/plotdeck/pkg/io"
)

// inspectCommand creates the inspect command for browsing widget trees.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [script]",
		Short: "Browse a script's widget tree interactively",
		Long: `Browse a script's widget tree interactively.

The inspect command replays the script and opens a terminal browser
over the document: arrow keys walk the widget tree, left and right
fold subtrees, and the panel below shows the selected widget's
resolved settings. Keys marked with * are set explicitly in the
script; the rest come from the stylesheet, the widget's ancestors, or
the schema defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := pkgio.ImportScript(args[0], c.Logger)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewTreeModel(d), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
