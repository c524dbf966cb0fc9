// Package schemafile loads schema descriptor files (YAML or JSON) into a
// Registry of named formskema types.
//
// A descriptor lists named types:
//
//	types:
//	  - name: post
//	    type: object
//	    groups:
//	      - {name: content, default: true}
//	      - {name: seo}
//	    fieldsets:
//	      - {name: meta, title: Metadata}
//	    fields:
//	      - {name: title, type: string, group: content}
//	      - {name: slug, type: string, group: seo, fieldset: meta}
//	      - name: body
//	        type: array
//	        group: content
//	        of: [{type: block}]
//	        hidden: {"==": [{var: document.kind}, "link"]}
//
// A type is either a keyword (object, array, string, number, boolean) or the
// name of another declared type. Rules (hidden, readOnly) are booleans or
// JSON-logic expressions.
package schemafile

import (
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	formskema "github.com/reoring/formskema"
)

// File is a decoded descriptor document.
type File struct {
	Types []TypeDesc `json:"types" yaml:"types"`
}

// TypeDesc describes a type, either top-level (named) or inline.
type TypeDesc struct {
	Name        string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Type        string                 `json:"type" yaml:"type"`
	Title       string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Options     *formskema.TypeOptions `json:"options,omitempty" yaml:"options,omitempty"`
	Hidden      any                    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	ReadOnly    any                    `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`

	Fields    []FieldDesc    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Fieldsets []FieldsetDesc `json:"fieldsets,omitempty" yaml:"fieldsets,omitempty"`
	Groups    []GroupDesc    `json:"groups,omitempty" yaml:"groups,omitempty"`

	Of []TypeDesc `json:"of,omitempty" yaml:"of,omitempty"`
}

// FieldDesc is an object field. Title, rules and options apply to the
// field only; a referenced named type is left untouched.
type FieldDesc struct {
	TypeDesc `yaml:",inline"`
	Group    StringList `json:"group,omitempty" yaml:"group,omitempty"`
	Fieldset string     `json:"fieldset,omitempty" yaml:"fieldset,omitempty"`
	Required bool       `json:"required,omitempty" yaml:"required,omitempty"`
}

// UnmarshalJSON decodes the embedded type description and the field
// placement from the same object.
func (f *FieldDesc) UnmarshalJSON(data []byte) error {
	var placement struct {
		Group    StringList `json:"group"`
		Fieldset string     `json:"fieldset"`
		Required bool       `json:"required"`
	}
	if err := json.Unmarshal(data, &f.TypeDesc); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &placement); err != nil {
		return err
	}
	f.Group, f.Fieldset, f.Required = placement.Group, placement.Fieldset, placement.Required
	return nil
}

// FieldsetDesc declares a real fieldset of an object type.
type FieldsetDesc struct {
	Name    string                `json:"name" yaml:"name"`
	Title   string                `json:"title,omitempty" yaml:"title,omitempty"`
	Hidden  any                   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Options formskema.TypeOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// GroupDesc declares a field group of an object type.
type GroupDesc struct {
	Name    string `json:"name" yaml:"name"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
	Hidden  any    `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (s *StringList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*s = StringList{n.Value}
		return nil
	}
	var many []string
	if err := n.Decode(&many); err != nil {
		return err
	}
	*s = many
	return nil
}
