package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
	pkgio "github.com/matzehuels/lockrisk/pkg/io"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

type analyzeOpts struct {
	top        int
	includeDev bool
	jsonOut    bool
	output     string
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze [package-lock.json]",
		Short: "Summarize a lockfile and rank its riskiest packages",
		Long: `Analyze walks a package-lock.json from the root project through every
resolved dependency and scores each package:

  risk = depth × 1.5 + fan-in

where depth is how far from the root the package was first reached and
fan-in is how many dependency edges point at it. Deep packages that many
others pull in score highest.

With -o the full graph is also exported as JSON, ready for 'simulate',
'render' or 'explore' without re-reading the lockfile.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "package-lock.json"
			if len(args) == 1 {
				input = args[0]
			}
			opts.top = flagOr(cmd, "top", opts.top, c.Config.Analysis.TopN)
			opts.includeDev = flagOr(cmd, "include-dev", opts.includeDev, c.Config.Analysis.IncludeDev)
			return c.runAnalyze(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.top, "top", "n", pipeline.DefaultTopN, "number of packages in the risk ranking")
	cmd.Flags().BoolVar(&opts.includeDev, "include-dev", false, "also walk the root's devDependencies")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the summary as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the full graph export to this file")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input string, opts analyzeOpts) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}

	prog := newProgress(c.Logger)
	a, err := runner.LoadFile(ctx, input, pipeline.Options{IncludeDev: opts.includeDev})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d packages", a.Stats.Packages))

	if opts.output != "" {
		if err := pkgio.ExportJSON(a.Graph(), opts.output); err != nil {
			return err
		}
	}

	summary := a.Summary(opts.top)
	if opts.jsonOut {
		return pkgio.WriteSummary(summary, out)
	}

	printAnalysis(a, opts.top)
	if opts.output != "" {
		printNewline()
		printSuccess("Exported graph")
		printFile(opts.output)
	}
	if len(summary.TopRisk) > 0 {
		printNewline()
		printNextStep("Simulate a compromise", fmt.Sprintf("%s simulate %s %s", appName, input, summary.TopRisk[0].Name))
	}
	return nil
}

// printAnalysis prints the headline statistics and the risk table.
func printAnalysis(a *pipeline.Analysis, top int) {
	name := a.Name
	if name == "" {
		name = filepath.Base(a.Source)
	}
	if a.Version != "" {
		name += "@" + a.Version
	}
	fmt.Fprintln(out, StyleTitle.Render(name))
	printKeyValue("Packages", StyleNumber.Render(strconv.Itoa(a.Stats.Packages)))
	printKeyValue("Direct", StyleNumber.Render(strconv.Itoa(a.Stats.Direct)))
	printKeyValue("Edges", StyleNumber.Render(strconv.Itoa(a.Stats.Edges)))
	if a.LockfileVersion > 0 {
		printKeyValue("Lockfile", "v"+strconv.Itoa(a.LockfileVersion))
	}

	ranked := depgraph.RankByRisk(a.Graph())
	if len(ranked) == 0 {
		printNewline()
		printWarning("No dependencies reachable from the root")
		return
	}
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	printNewline()
	fmt.Fprintln(out, riskTable(ranked))
}
