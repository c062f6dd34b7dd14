package pipeline

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
	"github.com/matzehuels/lockrisk/pkg/errors"
	pkgio "github.com/matzehuels/lockrisk/pkg/io"
	"github.com/matzehuels/lockrisk/pkg/observability"
)

// Analysis is the result of one analysis run. Its graph is fully scored
// when the handle is created and is never modified afterwards; all methods
// are safe for concurrent use.
type Analysis struct {
	ID              string
	Name            string
	Version         string
	LockfileVersion int
	Source          string
	CreatedAt       time.Time
	Stats           Stats

	graph *depgraph.Graph

	reverseOnce sync.Once
	reverse     depgraph.ReverseMap
}

// NewAnalysis wraps a scored graph in a fresh handle with a new ID.
func NewAnalysis(g *depgraph.Graph) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		graph:     g,
		Stats: Stats{
			Packages: g.Len(),
			Direct:   g.DirectCount(),
			Edges:    g.EdgeCount(),
		},
	}
}

// Graph returns the scored package graph. Callers must not modify it.
func (a *Analysis) Graph() *depgraph.Graph { return a.graph }

// Reverse returns the parent lookup for the graph, building it on first use.
func (a *Analysis) Reverse() depgraph.ReverseMap {
	a.reverseOnce.Do(func() {
		a.reverse = depgraph.BuildReverseMap(a.graph)
	})
	return a.reverse
}

// Impacted returns the blast radius of target. Unknown targets fail with
// [errors.ErrCodePackageNotFound].
func (a *Analysis) Impacted(target string) (depgraph.KeySet, error) {
	if !a.graph.Has(target) {
		return nil, errors.New(errors.ErrCodePackageNotFound, "package %s is not in the analysis", target)
	}
	return a.Reverse().Impacted(target), nil
}

// Simulate reports the blast radius of a compromised target. The report
// lists every impacted package; use [depgraph.Simulation.Truncate] to cap
// it for display.
func (a *Analysis) Simulate(ctx context.Context, target string) (*depgraph.Simulation, error) {
	start := time.Now()
	impacted, err := a.Impacted(target)
	if err != nil {
		return nil, err
	}
	sim := depgraph.NewSimulation(target, impacted)
	observability.Analysis().OnSimulate(ctx, target, sim.ImpactedCount, time.Since(start))
	return sim, nil
}

// Summary returns headline statistics and the topN riskiest packages.
func (a *Analysis) Summary(topN int) depgraph.Summary {
	return depgraph.Summarize(a.graph, topN)
}

// Export writes the full graph as JSON.
func (a *Analysis) Export(w io.Writer) error {
	return pkgio.WriteJSON(a.graph, w)
}
