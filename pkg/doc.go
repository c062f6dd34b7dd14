// Package pkg provides the libraries behind lockrisk.
//
// # Overview
//
// lockrisk reads an npm package-lock.json, rebuilds the resolved dependency
// graph and scores every package by its exposure: how deep it sits and how
// many edges point at it. The pkg directory is organized as:
//
//  1. [lockfile] - lockfile parsing and the dependency walk
//  2. [depgraph] - graph structure, metrics, risk tiers and compromise simulation
//  3. [io] - JSON export and import of analyzed graphs
//  4. [render] - Graphviz node-link drawings
//  5. [pipeline] - orchestration (parse → walk → score → render) with caching
//  6. [session], [cache] - analysis storage for the HTTP API
//  7. [observability], [errors], [buildinfo] - ambient support
//
// # Architecture
//
//	package-lock.json
//	         ↓
//	    [lockfile] (parse, walk from the root)
//	         ↓
//	    [depgraph] (fan-in, risk score, reverse map)
//	         ↓
//	    [pipeline.Analysis] (immutable handle)
//	       ↙        ↘
//	  [io] JSON   [render/nodelink] DOT/SVG
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	a, err := runner.AnalyzeFile(ctx, "package-lock.json", pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(a.Summary(10).TopRisk)
//
//	sim, err := a.Simulate(ctx, "lodash@4.17.21")
//	fmt.Println(sim.ImpactedCount)
package pkg
