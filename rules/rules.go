// Package rules builds conditional properties (hidden, readOnly) from
// declarative comparisons and JSON-logic expressions.
package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	formskema "github.com/reoring/formskema"
)

// Op defines simple comparison operators for If(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	// Set is true when the path resolves to a non-nil value; want is ignored.
	Set
)

// Source selects which value of the conditional context a path reads.
type Source uint8

const (
	FromValue Source = iota
	FromParent
	FromDocument
)

// Condition is a composable Conditional.
type Condition struct {
	src  Source
	path string
	op   Op
	want any
	all  []Condition // composite AND
	any  []Condition // composite OR
	not  *Condition
	role string
}

var _ formskema.Conditional = Condition{}

// If compares the value at path (a JSON Pointer relative to the node's own
// value) against want.
func If(path string, op Op, want any) Condition {
	return Condition{src: FromValue, path: normalizePath(path), op: op, want: want}
}

// IfParent is If against the enclosing object value.
func IfParent(path string, op Op, want any) Condition {
	return Condition{src: FromParent, path: normalizePath(path), op: op, want: want}
}

// IfDocument is If against the whole document.
func IfDocument(path string, op Op, want any) Condition {
	return Condition{src: FromDocument, path: normalizePath(path), op: op, want: want}
}

// HasRole holds when the current user has the named role.
func HasRole(name string) Condition { return Condition{role: name} }

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Condition) Condition { return Condition{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Condition) Condition { return Condition{any: conds} }

// Not negates c.
func Not(c Condition) Condition { return Condition{not: &c} }

// And combines the receiver with additional conditions using logical AND.
func (c Condition) And(others ...Condition) Condition {
	conds := append([]Condition{c}, others...)
	return IfAll(conds...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Condition) Or(others ...Condition) Condition {
	conds := append([]Condition{c}, others...)
	return IfAny(conds...)
}

// Resolve implements formskema.Conditional.
func (c Condition) Resolve(ctx formskema.ConditionalContext) (bool, error) {
	return evalCondition(ctx, c), nil
}

func (c Condition) String() string {
	switch {
	case len(c.all) > 0:
		return "all(" + joinConditions(c.all) + ")"
	case len(c.any) > 0:
		return "any(" + joinConditions(c.any) + ")"
	case c.not != nil:
		return "not(" + c.not.String() + ")"
	case c.role != "":
		return "role(" + c.role + ")"
	}
	return fmt.Sprintf("%s%s %s %v", sourceName(c.src), c.path, opName(c.op), c.want)
}

func joinConditions(cs []Condition) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

func evalCondition(ctx formskema.ConditionalContext, c Condition) bool {
	// composite AND
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !evalCondition(ctx, it) {
				return false
			}
		}
		return true
	}
	// composite OR
	if len(c.any) > 0 {
		for _, it := range c.any {
			if evalCondition(ctx, it) {
				return true
			}
		}
		return false
	}
	if c.not != nil {
		return !evalCondition(ctx, *c.not)
	}
	if c.role != "" {
		return ctx.CurrentUser.HasRole(c.role)
	}
	// simple predicate
	var root any
	switch c.src {
	case FromParent:
		root = ctx.Parent
	case FromDocument:
		root = ctx.Document
	default:
		root = ctx.Value
	}
	cur, ok := ValueAt(root, c.path)
	if c.op == Set {
		return ok && cur != nil
	}
	if !ok {
		// a missing value only equals nil
		return (c.op == Eq && c.want == nil) || (c.op == Ne && c.want != nil)
	}
	return compare(cur, c.op, c.want)
}

// ValueAt navigates an untyped JSON value by JSON Pointer. Array segments
// may be numeric indexes or _key values.
func ValueAt(v any, pointer string) (any, bool) {
	rel := strings.TrimPrefix(pointer, "/")
	if rel == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(rel, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			if idx, err := strconv.Atoi(seg); err == nil {
				if idx < 0 || idx >= len(t) {
					return nil, false
				}
				cur = t[idx]
				continue
			}
			found := false
			for _, item := range t {
				if m, ok := item.(map[string]any); ok && m["_key"] == seg {
					cur, found = item, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// ------- helpers -------

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return looseEqual(cur, want)
	case Ne:
		return !looseEqual(cur, want)
	case Lt, Le, Gt, Ge:
		a, aok := toFloat(cur)
		b, bok := toFloat(want)
		if !aok || !bok {
			return false
		}
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	return false
}

// looseEqual compares numbers by value regardless of their Go type.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func sourceName(s Source) string {
	switch s {
	case FromParent:
		return "parent"
	case FromDocument:
		return "document"
	}
	return "value"
}

func opName(op Op) string {
	switch op {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Set:
		return "is set"
	}
	return "?"
}
