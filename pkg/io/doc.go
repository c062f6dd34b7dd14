// Package io reads and writes the JSON forms of an analysis.
//
// # Graph Export
//
// The export is a single object mapping each package key to its enriched
// node:
//
//	{
//	  "a@1.0.0": {
//	    "name": "a",
//	    "version": "1.0.0",
//	    "depth": 1,
//	    "direct": true,
//	    "dependencies": ["b@2.0.0"],
//	    "fanin": 1,
//	    "risk_score": 2.5
//	  }
//	}
//
// Keys are written in graph insertion order, which for a walked lockfile is
// discovery order. risk_score is written with the shortest representation
// that round-trips exactly.
//
// Use [WriteJSON] or [ExportJSON] to write a graph and [ReadJSON] or
// [ImportJSON] to read one back. Import keeps the key order of the file, so
// an export re-imports to a graph that reports identically.
//
// # Reports
//
// [WriteSimulation] and [WriteSummary] encode the simulation and summary
// reports consumed by the web UI and scripts.
//
// # Concurrency
//
// Writers only read the graph and may run concurrently with each other. The
// readers return independent graphs.
package io
