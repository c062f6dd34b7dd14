package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockrisk/pkg/errors"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

type renderOpts struct {
	format     string
	output     string
	target     string
	detailed   bool
	maxNodes   int
	includeDev bool
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render [lockfile|graph.json]",
		Short: "Draw the dependency graph",
		Long: `Render draws the dependency graph with every package coloured by risk tier
and sized by fan-in. Direct dependencies have a double outline.

With --compromise the target is outlined in red, every package it would
expose is emphasized and the rest of the graph is dimmed.

SVG drawings are cached locally, keyed by the graph's content, so
re-rendering an unchanged lockfile is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			opts.detailed = flagOr(cmd, "detailed", opts.detailed, c.Config.Render.Detailed)
			opts.maxNodes = flagOr(cmd, "max-nodes", opts.maxNodes, c.Config.Render.MaxNodes)
			opts.includeDev = flagOr(cmd, "include-dev", opts.includeDev, c.Config.Analysis.IncludeDev)
			if opts.target != "" {
				if err := errors.ValidatePackageKey(opts.target); err != nil {
					return err
				}
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: input name with format extension)")
	cmd.Flags().StringVar(&opts.target, "compromise", "", "highlight the blast radius of this package key")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show depth, fan-in and risk in node labels")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "draw only the riskiest N packages (0 draws all)")
	cmd.Flags().BoolVar(&opts.includeDev, "include-dev", false, "also walk the root's devDependencies")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	a, err := runner.LoadFile(ctx, input, pipeline.Options{IncludeDev: opts.includeDev})
	if err != nil {
		return err
	}

	ropts := pipeline.RenderOptions{Detailed: opts.detailed, Target: opts.target, MaxNodes: opts.maxNodes}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", opts.format))
	spinner.Start()

	var (
		data   []byte
		cached bool
	)
	if opts.format == pipeline.FormatSVG {
		data, cached, err = runner.RenderSVG(ctx, a, ropts)
	} else {
		data, err = runner.Render(ctx, a, opts.format, ropts)
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if opts.output == "-" {
		_, err := out.Write(data)
		return err
	}
	path := opts.output
	if path == "" {
		path = outputPath(input, opts.format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Rendered %s", opts.format)
	printStats(a.Stats.Packages, a.Stats.Edges, cached)
	printFile(path)
	return nil
}

// outputPath derives an output file name from the input, e.g.
// "app/package-lock.json" becomes "app/package-lock.svg".
func outputPath(input, format string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if format == pipeline.FormatJSON && strings.HasSuffix(input, ".json") {
		base += ".graph"
	}
	return base + "." + format
}
