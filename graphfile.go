package hwprove

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GraphFile is the YAML encoding of an expression graph. Nodes are listed in
// definition order and refer to their operands by name.
type GraphFile struct {
	Nodes []GraphFileNode `yaml:"nodes"`
}

type GraphFileNode struct {
	Name     string   `yaml:"name"`
	Op       string   `yaml:"op"`
	Width    uint     `yaml:"width"`
	Signed   bool     `yaml:"signed,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	Start    uint     `yaml:"start,omitempty"`
	Operands []string `yaml:"operands,omitempty"`
}

// ParseGraphYAML builds a graph from its YAML encoding. The returned map
// resolves node names to ids; parameters are named after their node.
func ParseGraphYAML(data []byte) (*Graph, map[string]NodeID, error) {
	var f GraphFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing graph: %w", err)
	}
	return f.Build()
}

func LoadGraphFile(path string) (*Graph, map[string]NodeID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading graph: %w", err)
	}
	g, names, err := ParseGraphYAML(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, names, nil
}

func (f *GraphFile) Build() (*Graph, map[string]NodeID, error) {
	g := NewGraph()
	names := make(map[string]NodeID, len(f.Nodes))

	for i, decl := range f.Nodes {
		if decl.Name == "" {
			return nil, nil, fmt.Errorf("node %d: missing name", i)
		}
		if _, ok := names[decl.Name]; ok {
			return nil, nil, fmt.Errorf("node %q: defined twice", decl.Name)
		}
		id, err := decl.build(g, names)
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", decl.Name, err)
		}
		names[decl.Name] = id
	}
	return g, names, nil
}

func (decl *GraphFileNode) build(g *Graph, names map[string]NodeID) (NodeID, error) {
	kind, ok := KindFromName(decl.Op)
	if !ok {
		return -1, fmt.Errorf("unknown op %q", decl.Op)
	}
	if decl.Width == 0 {
		return -1, fmt.Errorf("missing width")
	}

	operands := make([]NodeID, len(decl.Operands))
	for i, name := range decl.Operands {
		id, ok := names[name]
		if !ok {
			return -1, fmt.Errorf("operand %q is not defined before use", name)
		}
		operands[i] = id
	}

	switch kind {
	case TY_LITERAL:
		if decl.Value == "" {
			return -1, fmt.Errorf("literal without value")
		}
		c, err := ParseBVConst(decl.Value, decl.Width)
		if err != nil {
			return -1, err
		}
		return g.LiteralConst(c), nil
	case TY_PARAM:
		return g.Param(decl.Name, decl.Width), nil
	case TY_SLICE:
		if len(operands) != 1 {
			return -1, fmt.Errorf("slice expects 1 operand, got %d", len(operands))
		}
		return g.Slice(operands[0], decl.Start, decl.Width)
	}
	return g.Op(kind, decl.Width, decl.Signed, operands...)
}
