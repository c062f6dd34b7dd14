package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
	"github.com/matzehuels/lockrisk/pkg/errors"
)

// ReadJSON decodes a graph export from r.
//
// Every key must have the form name@version and every value must be a node
// object. Metrics are taken from the file as written; call
// [depgraph.ComputeMetrics] to recompute them. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*depgraph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return UnmarshalGraph(data)
}

// UnmarshalGraph decodes a graph export held in memory.
func UnmarshalGraph(data []byte) (*depgraph.Graph, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graph export is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "graph export must be a JSON object")
	}

	g := depgraph.New()
	var decodeErr error
	doc.ForEach(func(k, v gjson.Result) bool {
		decodeErr = insertNode(g, k.String(), v)
		return decodeErr == nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return g, nil
}

func insertNode(g *depgraph.Graph, key string, v gjson.Result) error {
	if err := errors.ValidatePackageKey(key); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %s", key)
	}
	if !v.IsObject() {
		return errors.New(errors.ErrCodeInvalidFormat, "node %s: value must be an object", key)
	}
	var n depgraph.Node
	if err := json.Unmarshal([]byte(v.Raw), &n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %s", key)
	}
	if err := g.Insert(key, &n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %s", key)
	}
	return nil
}

// ImportJSON reads a graph export from the file at path.
func ImportJSON(path string) (*depgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
