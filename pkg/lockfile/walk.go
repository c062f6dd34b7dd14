package lockfile

import (
	"github.com/matzehuels/lockrisk/pkg/depgraph"
)

// Options controls the walk.
type Options struct {
	// IncludeDev also expands the root's devDependencies, after its
	// regular dependencies.
	IncludeDev bool
}

// frame is one pending visit on the walk stack.
type frame struct {
	path   string
	depth  int
	parent string // graph key of the parent, empty for the root's children
}

// Walk traverses lf from the root and returns the resulting graph. Metrics
// are not computed; see [depgraph.ComputeMetrics].
func Walk(lf *Lockfile, opts Options) *depgraph.Graph {
	b := depgraph.NewBuilder()
	WalkInto(b, lf, opts)
	return b.Graph()
}

// WalkInto traverses lf from the root, recording nodes and edges on b.
//
// Children are pushed in reverse so they pop in declaration order, which
// reproduces a recursive pre-order traversal without recursion.
func WalkInto(b *depgraph.Builder, lf *Lockfile, opts Options) {
	stack := []frame{{path: RootKey}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entry, ok := lf.Packages[f.path]
		if !ok {
			continue
		}

		var self string
		if f.path != RootKey {
			name := PackageName(f.path)
			self = depgraph.Key(name, entry.Version)
			_, first := b.Add(self, name, entry.Version, f.depth)
			if f.parent != "" {
				b.Link(f.parent, self)
			}
			if !first {
				continue
			}
		}

		names := entry.Dependencies
		if f.path == RootKey && opts.IncludeDev {
			names = append(append([]string(nil), names...), entry.DevDependencies...)
		}
		for i := len(names) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				path:   InstallPrefix + names[i],
				depth:  f.depth + 1,
				parent: self,
			})
		}
	}
}
