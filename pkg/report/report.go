// Package report serializes resolution results: the JSON report consumed by
// scripts and the HTTP API, a plain nodes-and-edges JSON export of the
// dependency graph, and Graphviz DOT/SVG rendering for visualization.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kpmtools/kpm/pkg/resolver"
)

// Marshal encodes a resolution report as indented JSON.
func Marshal(rep *resolver.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

// WriteJSON encodes a resolution report as indented JSON and writes it to w.
func WriteJSON(rep *resolver.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ExportJSON writes a resolution report to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(rep *resolver.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(rep, f)
}

// ReadJSON decodes a resolution report previously written with [WriteJSON].
func ReadJSON(r io.Reader) (*resolver.Report, error) {
	var rep resolver.Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}
