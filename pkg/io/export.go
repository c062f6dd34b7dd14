package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/pretty"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
)

// MarshalGraph encodes g as a compact JSON object keyed by package key.
func MarshalGraph(g *depgraph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range g.Nodes() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Key)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", n.Key, err)
		}
		val, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON encodes g as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(g *depgraph.Graph, w io.Writer) error {
	data, err := MarshalGraph(g)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := w.Write(pretty.Pretty(data)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *depgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSimulation encodes a simulation report as indented JSON.
func WriteSimulation(s *depgraph.Simulation, w io.Writer) error {
	return writeIndented(s, w)
}

// WriteSummary encodes summary statistics as indented JSON.
func WriteSummary(s depgraph.Summary, w io.Writer) error {
	return writeIndented(s, w)
}

func writeIndented(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
