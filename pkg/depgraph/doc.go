// Package depgraph provides the package graph built from a resolved lockfile
// and the analyses that run over it.
//
// # Overview
//
// A [Graph] maps package keys ("name@version") to [Node] values. Each node
// records the depth at which it was first discovered from the project root,
// the keys of the packages it depends on, its fan-in (how many dependency
// entries point at it) and a composite risk score.
//
// Graphs are populated through a [Builder], enriched once with
// [ComputeMetrics], and then treated as read-only:
//
//	b := depgraph.NewBuilder()
//	b.Add("a@1.0.0", "a", "1.0.0", 1)
//	b.Add("b@2.0.0", "b", "2.0.0", 2)
//	b.Link("a@1.0.0", "b@2.0.0")
//	g := b.Graph()
//	depgraph.ComputeMetrics(g)
//
// # Metrics
//
// Fan-in counts every dependencies entry that names a node present in the
// graph. The risk score is depth*1.5 + fan-in, so deep packages that many
// others rely on rank highest. [TierFor] buckets a score into the four risk
// tiers used by reports and visualizations.
//
// # Blast radius
//
// [BuildReverseMap] inverts the dependency edges and [SimulateCompromise]
// walks the inverted edges from a target to collect every package that
// transitively depends on it. The walk uses an explicit stack, so very deep
// trees do not grow the goroutine stack, and a visited set, so cycles
// terminate.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Once metrics are computed,
// any number of goroutines may read it and run simulations concurrently.
package depgraph
