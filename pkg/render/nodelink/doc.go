// Package nodelink draws package graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] produces Graphviz DOT source where every package is a rounded box
// filled with the colour of its risk tier and sized by fan-in. [RenderSVG]
// lays the DOT out in-process and returns SVG bytes.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Highlighting a simulation
//
// Setting [Options.Target] and [Options.Impacted] draws a compromise
// simulation: the target gets a heavy red outline, impacted packages keep
// their tier colour, and every other package is greyed out.
//
// # Options
//
//   - Detailed: labels also carry depth, fan-in and risk score
//   - MaxNodes: keep only the riskiest packages (0 draws everything)
//
// # Dependencies
//
// Layout uses [github.com/goccy/go-graphviz], a WebAssembly build of
// Graphviz, so no system installation is required.
package nodelink
