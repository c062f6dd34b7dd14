package depgraph

// ReverseMap maps every node key to the keys of the nodes that list it as
// a dependency. A parent appears once per dependency entry.
type ReverseMap map[string][]string

// BuildReverseMap inverts the dependency edges of g. Every node gets an
// entry, even with no parents; edges to keys outside the graph are dropped.
// Parents are listed in graph insertion order.
func BuildReverseMap(g *Graph) ReverseMap {
	rev := make(ReverseMap, len(g.nodes))
	for _, k := range g.order {
		rev[k] = []string{}
	}
	for _, parent := range g.order {
		for _, child := range g.nodes[parent].Dependencies {
			if _, ok := rev[child]; ok {
				rev[child] = append(rev[child], parent)
			}
		}
	}
	return rev
}

// Parents returns the dependents of key.
func (r ReverseMap) Parents(key string) []string { return r[key] }

// Impacted returns every key that transitively depends on target. The
// target itself is never part of the result, even when it sits on a cycle.
// An unknown target yields an empty set.
func (r ReverseMap) Impacted(target string) KeySet {
	impacted := make(KeySet)
	stack := []string{target}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, parent := range r[current] {
			if parent == target || impacted.Has(parent) {
				continue
			}
			impacted[parent] = struct{}{}
			stack = append(stack, parent)
		}
	}
	return impacted
}
