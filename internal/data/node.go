package data

import (
	"encoding/json"
	"fmt"

	"github.com/farmdemo/server/internal/motion"
)

// Node is one CeleryScript node as stored in a sequence body.
type Node struct {
	Kind string         `json:"kind" yaml:"kind"`
	Args map[string]any `json:"args" yaml:"args"`
	Body []Node         `json:"body,omitempty" yaml:"body"`
}

// Arg returns the named argument or nil.
func (n Node) Arg(name string) any {
	return n.Args[name]
}

// ParameterApplications converts the parameter_application children of n
// into variable bindings. Other children are skipped.
func (n Node) ParameterApplications() ([]motion.ParameterApplication, error) {
	var out []motion.ParameterApplication
	for _, child := range n.Body {
		if child.Kind != "parameter_application" {
			continue
		}
		raw, err := json.Marshal(child.Args)
		if err != nil {
			return nil, fmt.Errorf("encode parameter_application: %w", err)
		}
		var pa motion.ParameterApplication
		if err := json.Unmarshal(raw, &pa); err != nil {
			return nil, fmt.Errorf("decode parameter_application: %w", err)
		}
		out = append(out, pa)
	}
	return out, nil
}
