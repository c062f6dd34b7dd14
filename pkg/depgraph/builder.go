package depgraph

// Builder accumulates nodes and edges during a lockfile walk.
//
// A node's depth is fixed by the first Add for its key; later Adds for the
// same key return the existing node untouched, which gives first-seen-wins
// depth semantics and doubles as the walker's visited gate.
type Builder struct {
	g *Graph
}

// NewBuilder returns a builder over an empty graph.
func NewBuilder() *Builder {
	return &Builder{g: New()}
}

// Add materializes the package under key if it is not present yet and
// reports whether this call created it.
func (b *Builder) Add(key, name, version string, depth int) (*Node, bool) {
	if n, ok := b.g.nodes[key]; ok {
		return n, false
	}
	if version == "" {
		version = UnknownVersion
	}
	n := &Node{
		Key:          key,
		Name:         name,
		Version:      version,
		Depth:        depth,
		Direct:       depth == 1,
		Dependencies: []string{},
	}
	b.g.nodes[key] = n
	b.g.order = append(b.g.order, key)
	return n, true
}

// Link appends child to the parent's dependency list. Repeated links are
// kept: the graph is a multigraph. Links from unknown parents are ignored.
func (b *Builder) Link(parent, child string) {
	if n, ok := b.g.nodes[parent]; ok {
		n.Dependencies = append(n.Dependencies, child)
	}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph { return b.g }
