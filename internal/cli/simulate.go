package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/lockrisk/pkg/io"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

type simulateOpts struct {
	limit      int
	includeDev bool
	jsonOut    bool
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate [lockfile|graph.json] [name@version]",
		Short: "Show what a compromised package would expose",
		Long: `Simulate assumes one package has been compromised and lists every package
that depends on it, directly or through any chain of dependencies.

The input may be a package-lock.json or a graph export written by
'analyze -o'. The target is a package key such as lodash@4.17.21.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.limit = flagOr(cmd, "limit", opts.limit, c.Config.Analysis.DisplayLimit)
			opts.includeDev = flagOr(cmd, "include-dev", opts.includeDev, c.Config.Analysis.IncludeDev)
			return c.runSimulate(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "l", pipeline.DefaultDisplayLimit, "maximum impacted packages to list (0 lists all)")
	cmd.Flags().BoolVar(&opts.includeDev, "include-dev", false, "also walk the root's devDependencies")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")

	return cmd
}

func (c *CLI) runSimulate(ctx context.Context, input, target string, opts simulateOpts) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}

	a, err := runner.LoadFile(ctx, input, pipeline.Options{IncludeDev: opts.includeDev})
	if err != nil {
		return err
	}
	sim, err := a.Simulate(ctx, target)
	if err != nil {
		return err
	}
	sim = sim.Truncate(opts.limit)

	if opts.jsonOut {
		return pkgio.WriteSimulation(sim, out)
	}
	printSimulation(sim)
	if sim.ImpactedCount > 0 {
		printNewline()
		printNextStep("Highlight it in the graph", fmt.Sprintf("%s render %s --compromise %s", appName, input, target))
	}
	return nil
}
