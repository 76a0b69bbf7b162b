package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plotdeck/plotdeck/pkg/document"
	pkgio "github.com/plotdeck/plotdeck/pkg/io"
	"github.com/plotdeck/plotdeck/pkg/pipeline"
)

// renderCommand creates the render command for exporting script pages.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		style      string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [script]",
		Short: "Render a script's pages to image files",
		Long: `Render a script's pages to image files.

The render command replays the command script, settles every derived
dataset, solves the page layouts, and writes one file per page and
format. Output names derive from the script name: plot.pds becomes
plot.svg, or plot_page2.svg when the document has several pages.

A TOML stylesheet passed with --style restyles every widget of a type
without editing the script. Results are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, style, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single page/format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, eps (comma-separated)")
	cmd.Flags().StringVar(&opts.Page, "page", "", "render a single page by name")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "raster resolution in pixels per point (png)")
	cmd.Flags().StringVar(&style, "style", "", "TOML stylesheet overlaid on the document")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute every stage, ignoring cached results")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender replays the script, renders it, and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output, style string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", input))
	spinner.Start()

	res, err := c.execute(ctx, runner, input, style, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(output, input)
	paths, err := writeArtifacts(res, opts.Formats, base)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d page(s)", len(res.Pages))
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.Widgets, 0, res.CacheInfo.RenderHit)

	return nil
}

// execute renders the script, loading it by hand when a stylesheet
// has to be overlaid first.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, input, style string, opts pipeline.Options) (*pipeline.Result, error) {
	if style == "" {
		return runner.ExecuteScript(ctx, input, opts)
	}
	d, err := pkgio.ImportScript(input, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := applyStylesheet(d, style); err != nil {
		return nil, err
	}
	return runner.Execute(ctx, d, opts)
}

// applyStylesheet overlays a TOML stylesheet file onto the document
// as a single history entry.
func applyStylesheet(d *document.Document, path string) error {
	ss, err := document.LoadStylesheet(path)
	if err != nil {
		return err
	}
	comp := &document.Composite{Label: "stylesheet " + filepath.Base(path)}
	for _, t := range ss.Types() {
		for _, key := range ss.Keys(t) {
			v, _ := ss.Get(t, key)
			comp.Ops = append(comp.Ops, &document.SetStyle{Type: t, Key: key, Value: v})
		}
	}
	if len(comp.Ops) == 0 {
		return nil
	}
	return d.Apply(comp)
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output has a
// format extension (.svg, .png, ...), it strips that extension. This is used
// when generating multiple files (plot_page1.svg, plot_page2.svg).
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPath builds the output file name for one page and format.
// The page name is folded into the file name only when the document
// has several pages.
func artifactPath(base, page, format string, multiPage bool) string {
	if multiPage {
		return fmt.Sprintf("%s_%s.%s", base, page, format)
	}
	return fmt.Sprintf("%s.%s", base, format)
}

// writeArtifacts writes every rendered page/format combination under
// base and returns the paths written, in page order.
func writeArtifacts(res *pipeline.Result, formats []string, base string) ([]string, error) {
	multi := len(res.Pages) > 1
	var paths []string
	for _, page := range res.Pages {
		for _, format := range formats {
			data, ok := res.Artifact(page, format)
			if !ok {
				continue
			}
			path := artifactPath(base, page, format, multi)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
