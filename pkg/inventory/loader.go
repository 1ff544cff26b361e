package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format names the serialization of an inventory dump.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid input format %q (expected json or yaml)", s)
}

// Load reads an inventory document from path. Both formats are decoded with
// the YAML parser (JSON is a YAML subset), which keeps mapping key order and
// so keeps traversal deterministic. The returned node is the root mapping of
// top-level group name to sub-document.
func Load(path string, format Format) (*yaml.Node, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", path, err)
	}

	root := unwrapDocument(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("inventory %s: top level is not a mapping", path)
	}
	return root, nil
}
