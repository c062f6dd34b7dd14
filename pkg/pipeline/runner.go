package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/depgraph"
	"github.com/matzehuels/lockrisk/pkg/errors"
	pkgio "github.com/matzehuels/lockrisk/pkg/io"
	"github.com/matzehuels/lockrisk/pkg/lockfile"
	"github.com/matzehuels/lockrisk/pkg/observability"
	"github.com/matzehuels/lockrisk/pkg/render/nodelink"
)

// Runner executes analyses and renders their graphs with caching.
// Both CLI and API use it so that they behave identically.
//
// The Runner holds no analysis state; one Runner can serve any number of
// goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Analyze parses lockfile bytes, walks the tree and scores every package.
// On any error no partial result is returned.
func (r *Runner) Analyze(ctx context.Context, data []byte, opts Options) (*Analysis, error) {
	hooks := observability.Analysis()
	hooks.OnAnalyzeStart(ctx, opts.Source, len(data))
	start := time.Now()

	a, err := r.analyze(data, opts)
	if err != nil {
		hooks.OnAnalyzeComplete(ctx, opts.Source, 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnAnalyzeComplete(ctx, opts.Source, a.Stats.Packages, a.Stats.Edges, time.Since(start), nil)

	r.Logger.Info("analyzed lockfile",
		"source", opts.Source,
		"packages", a.Stats.Packages,
		"direct", a.Stats.Direct,
		"edges", a.Stats.Edges,
		"duration", time.Since(start))
	return a, nil
}

func (r *Runner) analyze(data []byte, opts Options) (*Analysis, error) {
	t0 := time.Now()
	lf, err := lockfile.Parse(data)
	if err != nil {
		return nil, err
	}
	t1 := time.Now()

	g := lockfile.Walk(lf, lockfile.Options{IncludeDev: opts.IncludeDev})
	t2 := time.Now()

	depgraph.ComputeMetrics(g)
	t3 := time.Now()

	a := NewAnalysis(g)
	a.Name = lf.Name
	a.Version = lf.Version
	a.LockfileVersion = lf.LockfileVersion
	a.Source = opts.Source
	a.Stats.ParseTime = t1.Sub(t0)
	a.Stats.WalkTime = t2.Sub(t1)
	a.Stats.MetricsTime = t3.Sub(t2)
	a.Stats.LockfileBytes = len(data)
	return a, nil
}

// AnalyzeFile reads and analyzes the lockfile at path. Options.Source
// defaults to the file's base name.
func (r *Runner) AnalyzeFile(ctx context.Context, path string, opts Options) (*Analysis, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	return r.Analyze(ctx, data, opts)
}

// Load accepts either a lockfile or a graph export written by
// [Analysis.Export] and returns an analysis for it. Exports are detected by
// the absence of a top-level "packages" object; their metrics are
// recomputed so that the handle is consistent with its edges.
func (r *Runner) Load(ctx context.Context, data []byte, opts Options) (*Analysis, error) {
	if IsLockfile(data) {
		return r.Analyze(ctx, data, opts)
	}

	g, err := pkgio.UnmarshalGraph(data)
	if err != nil {
		return nil, err
	}
	depgraph.ComputeMetrics(g)
	a := NewAnalysis(g)
	a.Source = opts.Source
	a.Stats.FromExport = true

	r.Logger.Info("loaded graph export", "source", opts.Source, "packages", a.Stats.Packages)
	return a, nil
}

// LoadFile reads path and passes its contents to [Runner.Load].
func (r *Runner) LoadFile(ctx context.Context, path string, opts Options) (*Analysis, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	return r.Load(ctx, data, opts)
}

// IsLockfile reports whether data looks like a lockfile rather than a
// graph export.
func IsLockfile(data []byte) bool {
	return gjson.GetBytes(data, "packages").Exists() || gjson.GetBytes(data, "lockfileVersion").Exists()
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// DOT returns Graphviz source for the analysis graph.
func (r *Runner) DOT(a *Analysis, opts RenderOptions) (string, error) {
	nl := nodelink.Options{Detailed: opts.Detailed, MaxNodes: opts.MaxNodes}
	if opts.Target != "" {
		impacted, err := a.Impacted(opts.Target)
		if err != nil {
			return "", err
		}
		nl.Target = opts.Target
		nl.Impacted = impacted
	}
	return nodelink.ToDOT(a.Graph(), nl), nil
}

// RenderSVG draws the analysis graph. Results are cached under a hash of
// the graph export and the options, so identical lockfiles share drawings
// across analyses. The bool result reports a cache hit.
func (r *Runner) RenderSVG(ctx context.Context, a *Analysis, opts RenderOptions) ([]byte, bool, error) {
	dot, err := r.DOT(a, opts)
	if err != nil {
		return nil, false, err
	}

	graphData, err := pkgio.MarshalGraph(a.Graph())
	if err != nil {
		return nil, false, fmt.Errorf("hash graph: %w", err)
	}
	key := r.Keyer.SVGKey(cache.Hash(graphData), cache.SVGKeyOpts{
		Detailed: opts.Detailed,
		Target:   opts.Target,
		MaxNodes: opts.MaxNodes,
	})

	if data, ok, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	} else if ok {
		observability.Cache().OnCacheHit(ctx, "svg")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "svg")

	hooks := observability.Analysis()
	hooks.OnRenderStart(ctx, FormatSVG, a.Stats.Packages)
	start := time.Now()
	svg, err := nodelink.RenderSVG(ctx, dot)
	hooks.OnRenderComplete(ctx, FormatSVG, len(svg), time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}

	if err := r.Cache.Set(ctx, key, svg, DefaultRenderTTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "svg", len(svg))
	}
	return svg, false, nil
}

// Render produces the analysis in the given format.
func (r *Runner) Render(ctx context.Context, a *Analysis, format string, opts RenderOptions) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "render")
	}
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := a.Export(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		dot, err := r.DOT(a, opts)
		if err != nil {
			return nil, err
		}
		return []byte(dot), nil
	default:
		svg, _, err := r.RenderSVG(ctx, a, opts)
		return svg, err
	}
}
