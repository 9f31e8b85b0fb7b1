package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/common"

	"go.yaml.in/yaml/v3"
)

// inputFormat picks the decoder from an explicit format or the file extension.
func inputFormat(format, path string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// decodeRequest reads a build request. YAML is converted to JSON first so
// the same field names and shorthand forms (bare strings, tuple
// relationships) apply to both formats.
func decodeRequest(data []byte, format string) (common.MindMapRequest, error) {
	var req common.MindMapRequest

	switch format {
	case "yaml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return req, fmt.Errorf("invalid yaml: %w", err)
		}
		asJSON, err := json.Marshal(doc)
		if err != nil {
			return req, fmt.Errorf("unsupported yaml document: %w", err)
		}
		if err := json.Unmarshal(asJSON, &req); err != nil {
			return req, fmt.Errorf("invalid request: %w", err)
		}
	case "json":
		if err := ai.UnmarshalFlexible(string(data), &req); err != nil {
			return req, fmt.Errorf("invalid request: %w", err)
		}
	default:
		return req, fmt.Errorf("unknown input format %q", format)
	}

	return req, req.Validate()
}

func encodeOutput(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "yaml":
		// Round trip through JSON so the json field names are kept.
		asJSON, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(asJSON, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
