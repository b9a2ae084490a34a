package irfile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ffigen/internal/ir"
)

// Document is one authored IR file: the exported surface of one library.
type Document struct {
	Library string    `yaml:"library"`
	Docs    string    `yaml:"docs,omitempty"`
	Types   []TypeDoc `yaml:"types"`
}

// TypeDoc is one declared type.
type TypeDoc struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Docs     string       `yaml:"docs,omitempty"`
	Attrs    []AttrDoc    `yaml:"attrs,omitempty"`
	Prim     string       `yaml:"prim,omitempty"`
	Fields   []FieldDoc   `yaml:"fields,omitempty"`
	Variants []VariantDoc `yaml:"variants,omitempty"`
	Methods  []MethodDoc  `yaml:"methods,omitempty"`
}

// FieldDoc is one struct field.
type FieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Docs string `yaml:"docs,omitempty"`
}

// VariantDoc is one enum case. A nil ordinal means previous+1 (0 for the
// first variant).
type VariantDoc struct {
	Name    string `yaml:"name"`
	Ordinal *int32 `yaml:"ordinal,omitempty"`
	Docs    string `yaml:"docs,omitempty"`
}

// MethodDoc is one declared method.
type MethodDoc struct {
	Name    string     `yaml:"name"`
	Self    string     `yaml:"self,omitempty"` // static (default) | borrowed | value
	Params  []ParamDoc `yaml:"params,omitempty"`
	Returns string     `yaml:"returns,omitempty"`
	Attrs   []AttrDoc  `yaml:"attrs,omitempty"`
	Docs    string     `yaml:"docs,omitempty"`
}

// ParamDoc is one declared parameter.
type ParamDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// AttrDoc is one authored enable/disable rule.
type AttrDoc struct {
	Backend  string      `yaml:"backend,omitempty"`
	Features FeatureList `yaml:"features,omitempty"`
	Effect   string      `yaml:"effect"`
}

// FeatureList accepts either a single feature name or an array of them.
type FeatureList []string

// UnmarshalYAML implements custom YAML unmarshaling for FeatureList.
func (f *FeatureList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*f = FeatureList{str}
		} else {
			*f = FeatureList{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*f = arr

		return nil

	default:
		return fmt.Errorf("expected feature name or array, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for FeatureList.
func (f FeatureList) MarshalYAML() (any, error) {
	if len(f) == 1 {
		return f[0], nil
	}

	return []string(f), nil
}

// resolveAttrs lowers authored rules into the resolved spec the core
// consumes.
func resolveAttrs(docs []AttrDoc) (ir.AttrSpec, error) {
	var spec ir.AttrSpec

	for i, a := range docs {
		var effect ir.AttrEffect

		switch a.Effect {
		case "enable":
			effect = ir.AttrEnable
		case "disable":
			effect = ir.AttrDisable
		default:
			return ir.AttrSpec{}, fmt.Errorf("rule %d: effect must be enable or disable, got %q", i, a.Effect)
		}

		spec.Rules = append(spec.Rules, ir.AttrRule{
			Backend:  a.Backend,
			Features: append([]string(nil), a.Features...),
			Effect:   effect,
		})
	}

	return spec, nil
}
