package depgraph

import (
	"cmp"
	"slices"
)

// DefaultTopN is the number of packages listed in a summary's risk ranking.
const DefaultTopN = 10

// RiskEntry is one row of a summary's risk ranking. Name carries the
// package key so that two versions of one package stay distinguishable.
type RiskEntry struct {
	Name      string  `json:"name"`
	RiskScore float64 `json:"risk_score"`
}

// Summary holds the headline statistics of an analysis.
type Summary struct {
	TotalPackages  int         `json:"total_packages"`
	DirectPackages int         `json:"direct_packages"`
	TopRisk        []RiskEntry `json:"top_risk"`
}

// Summarize computes node counts and the topN riskiest packages of g.
// A topN <= 0 uses [DefaultTopN].
func Summarize(g *Graph, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}
	top := RankByRisk(g)
	if len(top) > topN {
		top = top[:topN]
	}
	entries := make([]RiskEntry, len(top))
	for i, n := range top {
		entries[i] = RiskEntry{Name: n.Key, RiskScore: n.RiskScore}
	}
	return Summary{
		TotalPackages:  g.Len(),
		DirectPackages: g.DirectCount(),
		TopRisk:        entries,
	}
}

// RankByRisk returns all nodes by descending risk score, ties broken by
// ascending key.
func RankByRisk(g *Graph) []*Node {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *Node) int {
		if c := cmp.Compare(b.RiskScore, a.RiskScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return nodes
}
