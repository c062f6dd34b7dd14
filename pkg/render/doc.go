// Package render groups the graph renderers.
//
// The [nodelink] subpackage draws an analysis as a Graphviz directed graph:
// nodes are coloured by risk tier and sized by fan-in, and a compromise
// simulation can be overlaid on the drawing. DOT output is produced in
// process; SVG is laid out with an embedded Graphviz.
package render
