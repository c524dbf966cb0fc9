package formskema

import "github.com/pkg/errors"

// Document is an untyped document value.
type Document = map[string]any

// Role is a role held by the current user.
type Role struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// CurrentUser identifies who is editing.
type CurrentUser struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Roles []Role `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// HasRole reports whether u holds the named role.
func (u *CurrentUser) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// ConditionalContext is the read-only input of a conditional rule.
type ConditionalContext struct {
	Value       any
	Parent      any
	Document    Document
	CurrentUser *CurrentUser
}

// Conditional is a rule that resolves a boolean property (hidden, readOnly)
// for a schema node.
type Conditional interface {
	Resolve(ctx ConditionalContext) (bool, error)
}

// Static is a plain boolean rule.
type Static bool

func (s Static) Resolve(ConditionalContext) (bool, error) { return bool(s), nil }

// ConditionalFunc adapts a Go function into a Conditional.
type ConditionalFunc func(ctx ConditionalContext) (bool, error)

func (f ConditionalFunc) Resolve(ctx ConditionalContext) (bool, error) { return f(ctx) }

// Property names a conditional property.
type Property string

const (
	PropHidden   Property = "hidden"
	PropReadOnly Property = "readOnly"
)

// ConditionalResult maps properties to their resolved values.
type ConditionalResult map[Property]bool

func (r ConditionalResult) Hidden() bool   { return r[PropHidden] }
func (r ConditionalResult) ReadOnly() bool { return r[PropReadOnly] }

// CallConditionalProperty resolves a single rule. A nil rule is false.
func CallConditionalProperty(c Conditional, ctx ConditionalContext) (bool, error) {
	if c == nil {
		return false, nil
	}
	return c.Resolve(ctx)
}

// CallConditionalProperties resolves the requested properties of t.
// Errors from user rules are returned wrapped, never defaulted.
func CallConditionalProperties(t *SchemaType, ctx ConditionalContext, props ...Property) (ConditionalResult, error) {
	out := make(ConditionalResult, len(props))
	for _, p := range props {
		var rule Conditional
		switch p {
		case PropHidden:
			rule = t.Hidden
		case PropReadOnly:
			rule = t.ReadOnly
		}
		v, err := CallConditionalProperty(rule, ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "%s of %q", p, t.Name)
		}
		out[p] = v
	}
	return out, nil
}

// Pick returns the subset of an object value holding the given keys.
// Non-object values yield an empty map.
func Pick(v any, keys []string) map[string]any {
	out := map[string]any{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for _, k := range keys {
		if val, ok := m[k]; ok {
			out[k] = val
		}
	}
	return out
}
