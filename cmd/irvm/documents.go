package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/irvm/pkg/value"
)

// loadDocument reads a host document for --input or --data. The argument is
// one of:
//
//	""           no document (the local stays undefined)
//	"-"          JSON read from stdin
//	"{...}"      an inline JSON object or array
//	path.yaml    a YAML file (.yaml or .yml)
//	path         a JSON file
func loadDocument(arg string, stdin io.Reader) (value.Value, error) {
	trimmed := strings.TrimSpace(arg)
	switch {
	case trimmed == "":
		return nil, nil
	case trimmed == "-":
		v, err := value.DecodeJSON(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return v, nil
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return value.ParseJSON([]byte(trimmed))
	}

	// #nosec G304 - reading user-specified document files is the purpose of the flag.
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", arg, err)
		}
		return value.FromInterface(tree)
	default:
		v, err := value.ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		return v, nil
	}
}

// documentFromTree converts a YAML-decoded tree from a test suite. A nil
// tree means the document was not given.
func documentFromTree(tree any) (value.Value, error) {
	if tree == nil {
		return nil, nil
	}
	return value.FromInterface(tree)
}
