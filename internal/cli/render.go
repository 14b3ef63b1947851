package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vizdeck/pkg/document"
	"github.com/matzehuels/vizdeck/pkg/engine"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file path, derived from input when empty
	width   float64 // canvas width in pixels, 0 uses the config default
	noCache bool    // bypass the render cache
	strict  bool    // exit non-zero when any block fails
}

// renderCommand creates the render command for one-shot document
// rendering.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a document file to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with .svg)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width in pixels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any block fails")

	return cmd
}

// runRender loads the document, renders it once, and writes the SVG.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	p := newProgress(c.Logger)

	doc, err := document.Load(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded document", "blocks", len(doc.Blocks), "title", doc.Title)

	eng, err := c.newEngine(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer eng.Close()

	width := opts.width
	if width <= 0 {
		width = doc.Width
	}
	if width <= 0 {
		width = c.Config.Width
	}

	sp := newSpinnerWithContext(ctx, "Rendering "+filepath.Base(input))
	sp.Start()
	result, err := eng.Render(ctx, doc.Blocks, width)
	sp.Stop()
	if sp.Cancelled() {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	if err := writeOutput(outputPath, result.SVG); err != nil {
		return err
	}

	p.done(fmt.Sprintf("Rendered %d blocks", len(result.Blocks)))
	printSuccess("Generated %s", outputPath)
	printStats(len(result.Blocks), len(result.Errors), allCached(result))
	for _, be := range result.Errors {
		printWarning("block %d: [%s] %s", be.BlockIndex, be.Code, be.Message)
	}
	printFile(outputPath)

	if opts.strict && result.Failed() {
		return fmt.Errorf("%d block(s) failed", len(result.Errors))
	}
	return nil
}

// writeOutput writes data to path, or stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// allCached reports whether every rendered block hit the artifact
// cache.
func allCached(result *engine.Result) bool {
	if len(result.Blocks) == 0 {
		return false
	}
	for _, b := range result.Blocks {
		if !b.CacheHit {
			return false
		}
	}
	return true
}
