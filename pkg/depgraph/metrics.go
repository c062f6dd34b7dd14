package depgraph

// depthWeight scales a node's depth in its risk score.
const depthWeight = 1.5

// ComputeFanIn resets every node's fan-in and recounts it from the
// dependency lists. Entries naming keys outside the graph are ignored.
func ComputeFanIn(g *Graph) {
	for _, n := range g.nodes {
		n.FanIn = 0
	}
	for _, n := range g.nodes {
		for _, dep := range n.Dependencies {
			if child, ok := g.nodes[dep]; ok {
				child.FanIn++
			}
		}
	}
}

// ComputeRiskScore sets every node's risk score to depth*1.5 + fan-in.
// It must run after [ComputeFanIn].
func ComputeRiskScore(g *Graph) {
	for _, n := range g.nodes {
		n.RiskScore = RiskScore(n.Depth, n.FanIn)
	}
}

// ComputeMetrics runs [ComputeFanIn] then [ComputeRiskScore]. It is
// idempotent on an unchanged graph.
func ComputeMetrics(g *Graph) {
	ComputeFanIn(g)
	ComputeRiskScore(g)
}

// RiskScore is the composite blast-radius metric for a single package.
func RiskScore(depth, fanIn int) float64 {
	return float64(depth)*depthWeight + float64(fanIn)
}
