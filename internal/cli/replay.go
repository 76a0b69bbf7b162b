package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pkgio "github.com/plotdeck/plotdeck/pkg/io"
)

// replayCommand creates the replay command for validating scripts.
func (c *CLI) replayCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "replay [script]",
		Short: "Validate a script by replaying it",
		Long: `Validate a script by replaying it.

The replay command applies every command in the script to a fresh
document and reports what it built: pages, widgets, datasets, and any
formulas that fail to evaluate. The script is rejected on the first
command that cannot be applied, with its line number.

With --output, the replayed document is written back out as a
normalized script: commands in canonical order, one definition per
dataset, undo history dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the normalized script to this path")

	return cmd
}

// runReplay loads the script, settles it, and reports statistics.
func (c *CLI) runReplay(ctx context.Context, input, output string) error {
	d, err := pkgio.ImportScript(input, c.Logger)
	if err != nil {
		return err
	}

	recomputed, err := d.Store().Settle(ctx)
	if err != nil {
		return err
	}

	printSuccess("Replayed %s", input)
	printKeyValue("pages", fmt.Sprintf("%d", len(d.Pages())))
	printKeyValue("widgets", fmt.Sprintf("%d", d.NodeCount()))
	printKeyValue("datasets", fmt.Sprintf("%d (%d computed)", d.Store().Len(), recomputed))
	printKeyValue("fingerprint", shortFingerprint(d.Fingerprint()))

	broken := 0
	for _, info := range d.Store().List() {
		if info.EvalErr != "" {
			printWarning("dataset %s: %s", info.Name, info.EvalErr)
			broken++
		}
	}
	if broken > 0 {
		printDetail("%d dataset(s) failed to evaluate; plots reading them stay empty", broken)
	}

	if output != "" {
		if err := pkgio.ExportScript(d, output); err != nil {
			return err
		}
		printFile(output)
	}

	printNewline()
	printNextStep("Render", "plotdeck render "+input)

	return nil
}

// shortFingerprint trims a content hash for display.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
