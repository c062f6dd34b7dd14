package depgraph

import (
	"errors"
	"slices"
)

// UnknownVersion is recorded for lockfile entries that carry no version.
const UnknownVersion = "unknown"

var (
	// ErrEmptyKey is returned by [Graph.Insert] when the key is empty.
	ErrEmptyKey = errors.New("package key must not be empty")

	// ErrDuplicateKey is returned by [Graph.Insert] when the key already exists.
	ErrDuplicateKey = errors.New("duplicate package key")
)

// Key returns the graph key for a package name and resolved version.
func Key(name, version string) string {
	if version == "" {
		version = UnknownVersion
	}
	return name + "@" + version
}

// Node is a single resolved package in the graph.
type Node struct {
	Key     string `json:"-"`
	Name    string `json:"name"`
	Version string `json:"version"`

	// Depth is the traversal depth at which the package was first reached
	// from the root. Direct dependencies of the root have depth 1.
	Depth  int  `json:"depth"`
	Direct bool `json:"direct"`

	// Dependencies lists child keys in discovery order.
	Dependencies []string `json:"dependencies"`

	FanIn     int     `json:"fanin"`
	RiskScore float64 `json:"risk_score"`
}

// Graph is a keyed set of package nodes with multigraph dependency edges.
// Keys iterate in insertion order, which keeps every derived report stable.
//
// The zero value is not usable; obtain a Graph from [New] or [Builder.Graph].
type Graph struct {
	nodes map[string]*Node
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Insert adds a fully formed node under key. It is used when a graph is
// reconstructed from an export rather than walked from a lockfile.
func (g *Graph) Insert(key string, n *Node) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, ok := g.nodes[key]; ok {
		return ErrDuplicateKey
	}
	n.Key = key
	if n.Dependencies == nil {
		n.Dependencies = []string{}
	}
	g.nodes[key] = n
	g.order = append(g.order, key)
	return nil
}

// Node returns the node stored under key.
func (g *Graph) Node(key string) (*Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Has reports whether key is a node of the graph.
func (g *Graph) Has(key string) bool {
	_, ok := g.nodes[key]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Keys returns all node keys in insertion order.
func (g *Graph) Keys() []string { return slices.Clone(g.order) }

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's own nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.nodes[k])
	}
	return out
}

// EdgeCount returns the number of dependency entries across all nodes,
// dangling and duplicate entries included.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.Dependencies)
	}
	return total
}

// DirectCount returns the number of direct dependencies of the root.
func (g *Graph) DirectCount() int {
	count := 0
	for _, n := range g.nodes {
		if n.Direct {
			count++
		}
	}
	return count
}
