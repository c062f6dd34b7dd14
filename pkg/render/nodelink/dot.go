package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds depth, fan-in and risk score to each label.
	Detailed bool

	// Target is the package whose compromise is being shown, if any.
	Target string

	// Impacted is the simulated blast radius of Target.
	Impacted depgraph.KeySet

	// MaxNodes limits the drawing to the highest-risk packages. The target
	// and its impacted set are always kept. Zero draws every package.
	MaxNodes int
}

const (
	dimFill  = "#e5e7eb"
	dimFont  = "#9ca3af"
	hitColor = "#dc2626"
)

// ToDOT converts a package graph to Graphviz DOT. Duplicate edges between
// the same two packages are drawn once, with a heavier stroke.
func ToDOT(g *depgraph.Graph, opts Options) string {
	keep := selectNodes(g, opts)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#6b7280\", arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !keep[n.Key] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		if !keep[n.Key] {
			continue
		}
		counts := make(map[string]int)
		var order []string
		for _, dep := range n.Dependencies {
			if !keep[dep] {
				continue
			}
			if counts[dep] == 0 {
				order = append(order, dep)
			}
			counts[dep]++
		}
		for _, dep := range order {
			if c := counts[dep]; c > 1 {
				fmt.Fprintf(&buf, "  %q -> %q [penwidth=%d];\n", n.Key, dep, min(c, 5))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", n.Key, dep)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func selectNodes(g *depgraph.Graph, opts Options) map[string]bool {
	keep := make(map[string]bool, g.Len())
	if opts.MaxNodes <= 0 || g.Len() <= opts.MaxNodes {
		for _, k := range g.Keys() {
			keep[k] = true
		}
		return keep
	}
	for _, n := range depgraph.RankByRisk(g)[:opts.MaxNodes] {
		keep[n.Key] = true
	}
	if opts.Target != "" && g.Has(opts.Target) {
		keep[opts.Target] = true
	}
	for k := range opts.Impacted {
		keep[k] = true
	}
	return keep
}

func fmtLabel(n *depgraph.Node, detailed bool) string {
	if !detailed {
		return n.Key
	}
	return fmt.Sprintf("%s\ndepth: %d\nfan-in: %d\nrisk: %s",
		n.Key, n.Depth, n.FanIn, strconv.FormatFloat(n.RiskScore, 'f', -1, 64))
}

func fmtAttrs(n *depgraph.Node, opts Options) []string {
	tier := depgraph.TierFor(n.RiskScore)
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("tooltip=%q", fmt.Sprintf("%s (%s risk %s)", n.Key, tier, strconv.FormatFloat(n.RiskScore, 'f', 2, 64))),
		fmt.Sprintf("fontsize=%d", 14+min(n.FanIn, 20)),
	}

	switch {
	case opts.Target == "":
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", tier.Color()))
	case n.Key == opts.Target:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", tier.Color()),
			fmt.Sprintf("color=%q", hitColor), "penwidth=4")
	case opts.Impacted.Has(n.Key):
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", tier.Color()),
			fmt.Sprintf("color=%q", hitColor), "penwidth=2")
	default:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", dimFill), fmt.Sprintf("fontcolor=%q", dimFont))
	}
	if n.Direct {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// whose origin is zero, so the drawing scales cleanly in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
