package depgraph

import (
	"maps"
	"slices"
)

// KeySet is an unordered set of package keys.
type KeySet map[string]struct{}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys.
func (s KeySet) Len() int { return len(s) }

// Sorted returns the keys in ascending order.
func (s KeySet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// SimulateCompromise returns every package that transitively depends on
// target. It builds a fresh reverse map on each call; callers running many
// simulations over one graph should build the map once and use
// [ReverseMap.Impacted].
//
// A target that is not in the graph yields an empty set. Callers that need
// to report an unknown target must check [Graph.Has] first.
func SimulateCompromise(target string, g *Graph) KeySet {
	return BuildReverseMap(g).Impacted(target)
}

// Simulation is the reportable outcome of a compromise simulation.
type Simulation struct {
	Target           string   `json:"target"`
	ImpactedCount    int      `json:"impacted_count"`
	ImpactedPackages []string `json:"impacted_packages"`
}

// NewSimulation builds a report for target from its impacted set. Packages
// are listed in ascending key order.
func NewSimulation(target string, impacted KeySet) *Simulation {
	return &Simulation{
		Target:           target,
		ImpactedCount:    impacted.Len(),
		ImpactedPackages: impacted.Sorted(),
	}
}

// Truncate returns a copy listing at most limit packages. ImpactedCount
// keeps the full set size. A limit <= 0 returns an untruncated copy.
func (s *Simulation) Truncate(limit int) *Simulation {
	out := *s
	if limit > 0 && len(s.ImpactedPackages) > limit {
		out.ImpactedPackages = slices.Clone(s.ImpactedPackages[:limit])
	} else {
		out.ImpactedPackages = slices.Clone(s.ImpactedPackages)
	}
	return &out
}
