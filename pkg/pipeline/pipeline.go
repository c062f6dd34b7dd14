// Package pipeline runs lockfile analyses for the CLI and the API server.
//
// An analysis parses a lockfile, walks it into a package graph and scores
// every package. The result is an [Analysis]: an immutable handle that owns
// its graph and answers simulation and summary queries. Handles never share
// state, so any number of them can be alive and queried concurrently.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	a, err := runner.AnalyzeFile(ctx, "package-lock.json", pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sim, err := a.Simulate(ctx, "debug@2.6.9")
//	summary := a.Summary(10)
//
// Rendering is cached by graph content:
//
//	svg, hit, err := runner.RenderSVG(ctx, a, pipeline.RenderOptions{})
package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultTopN is the size of the summary risk ranking.
	DefaultTopN = depgraph.DefaultTopN

	// DefaultDisplayLimit caps impacted packages listed in a simulation
	// report. The impacted count is never truncated.
	DefaultDisplayLimit = 20

	// DefaultRenderTTL is how long rendered SVGs stay cached.
	DefaultRenderTTL = 7 * 24 * time.Hour
)

// Output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
)

var validFormats = []string{FormatJSON, FormatSVG, FormatDOT}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("invalid format %q: must be one of %v", format, validFormats)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures an analysis run.
type Options struct {
	// Source names the input in logs and reports, typically a file name.
	Source string

	// IncludeDev also walks the root's devDependencies.
	IncludeDev bool
}

// RenderOptions configures graph rendering.
type RenderOptions struct {
	Detailed bool

	// Target highlights a compromise simulation for this package key.
	Target string

	// MaxNodes keeps only the riskiest packages. Zero draws everything.
	MaxNodes int
}

// Stats records the size of an analysis and the time spent per stage.
type Stats struct {
	Packages      int           `json:"packages"`
	Direct        int           `json:"direct"`
	Edges         int           `json:"edges"`
	ParseTime     time.Duration `json:"parse_time"`
	WalkTime      time.Duration `json:"walk_time"`
	MetricsTime   time.Duration `json:"metrics_time"`
	LockfileBytes int           `json:"lockfile_bytes"`
	FromExport    bool          `json:"from_export"`
}
