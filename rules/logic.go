package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

// ErrUnknownOperator is returned when a logic expression uses an operator
// the evaluator does not implement.
var ErrUnknownOperator = errors.New("unknown logic operator")

// LogicRule is a Conditional backed by a JSON-logic expression. The
// expression sees four variables: value, parent, document and currentUser
// (with id, name, email and roles as a list of role names).
type LogicRule struct {
	expr any
}

var _ formskema.Conditional = LogicRule{}

// Logic wraps a decoded JSON-logic expression.
func Logic(expr any) LogicRule { return LogicRule{expr: expr} }

// ParseLogic decodes a JSON-logic expression.
func ParseLogic(data []byte) (LogicRule, error) {
	var expr any
	if err := json.Unmarshal(data, &expr); err != nil {
		return LogicRule{}, errors.Wrap(err, "parse logic expression")
	}
	return Logic(expr), nil
}

// Expr returns the underlying expression.
func (l LogicRule) Expr() any { return l.expr }

// Resolve evaluates the expression and coerces the result by truthiness.
func (l LogicRule) Resolve(ctx formskema.ConditionalContext) (bool, error) {
	ev := &evaluator{vars: logicVars(ctx)}
	out := ev.resolve(l.expr)
	if ev.err != nil {
		return false, ev.err
	}
	return isTruthy(out), nil
}

// Eval evaluates the expression and returns its raw value.
func (l LogicRule) Eval(ctx formskema.ConditionalContext) (any, error) {
	ev := &evaluator{vars: logicVars(ctx)}
	out := ev.resolve(l.expr)
	return out, ev.err
}

func logicVars(ctx formskema.ConditionalContext) map[string]any {
	vars := map[string]any{
		"value":    ctx.Value,
		"parent":   ctx.Parent,
		"document": map[string]any(ctx.Document),
	}
	if u := ctx.CurrentUser; u != nil {
		roles := make([]any, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, r.Name)
		}
		vars["currentUser"] = map[string]any{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"roles": roles,
		}
	}
	return vars
}

// evaluator holds the state of one evaluation. The first error wins.
type evaluator struct {
	vars map[string]any
	err  error
}

func (e *evaluator) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// resolve evaluates any JSON-logic node and returns its value.
func (e *evaluator) resolve(node any) any {
	if e.err != nil {
		return nil
	}
	switch v := node.(type) {
	case map[string]any:
		// {"op": args}
		if len(v) == 1 {
			for op, args := range v {
				return e.operator(op, args)
			}
		}
		// multi-key maps are literals
		return v
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = e.resolve(elem)
		}
		return out
	default:
		return v
	}
}

func (e *evaluator) operator(op string, args any) any {
	switch op {
	case "var":
		return e.opVar(args)

	case "missing":
		return e.opMissing(args)

	case "==":
		a := e.resolveArgs(args, 2)
		return looseEqual(a[0], a[1])

	case "!=":
		a := e.resolveArgs(args, 2)
		return !looseEqual(a[0], a[1])

	case "<":
		return e.ordered(args, Lt)
	case "<=":
		return e.ordered(args, Le)
	case ">":
		return e.ordered(args, Gt)
	case ">=":
		return e.ordered(args, Ge)

	case "and":
		return e.opAnd(args)

	case "or":
		return e.opOr(args)

	case "!", "not":
		a := e.resolveArgs(args, 1)
		return !isTruthy(a[0])

	case "!!":
		a := e.resolveArgs(args, 1)
		return isTruthy(a[0])

	case "if", "?:":
		return e.opIf(args)

	case "in":
		a := e.resolveArgs(args, 2)
		return opIn(a[0], a[1])

	default:
		e.fail(errors.Wrapf(ErrUnknownOperator, "%q", op))
		return nil
	}
}

// resolveArgs resolves an argument list; missing values are nil.
func (e *evaluator) resolveArgs(args any, expected int) []any {
	out := make([]any, expected)
	arr, ok := args.([]any)
	if !ok {
		// single value, e.g. {"!": true}
		if expected > 0 {
			out[0] = e.resolve(args)
		}
		return out
	}
	for i := 0; i < expected && i < len(arr); i++ {
		out[i] = e.resolve(arr[i])
	}
	return out
}

// ordered supports the between form {"<": [a, b, c]} for < and <=.
func (e *evaluator) ordered(args any, op Op) bool {
	if arr, ok := args.([]any); ok && len(arr) == 3 && (op == Lt || op == Le) {
		a := e.resolveArgs(args, 3)
		return compare(a[0], op, a[1]) && compare(a[1], op, a[2])
	}
	a := e.resolveArgs(args, 2)
	return compare(a[0], op, a[1])
}

// opVar reads {"var": "document.items.0.title"} or {"var": [path, default]}.
func (e *evaluator) opVar(args any) any {
	var def any
	var path any = args
	if arr, ok := args.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		path = e.resolve(arr[0])
		if len(arr) > 1 {
			def = e.resolve(arr[1])
		}
	}
	var key string
	switch p := path.(type) {
	case string:
		key = p
	case float64:
		key = strconv.FormatFloat(p, 'f', -1, 64)
	case nil:
		return e.vars
	default:
		key = fmt.Sprint(p)
	}
	v, ok := e.lookup(key)
	if !ok || v == nil {
		return def
	}
	return v
}

func (e *evaluator) lookup(key string) (any, bool) {
	if key == "" {
		return e.vars, true
	}
	return ValueAt(e.vars, "/"+strings.ReplaceAll(key, ".", "/"))
}

// opMissing returns the listed variables that are nil or absent.
func (e *evaluator) opMissing(args any) any {
	var keys []any
	switch a := e.resolve(args).(type) {
	case []any:
		keys = a
	default:
		keys = []any{a}
	}
	out := []any{}
	for _, k := range keys {
		s, ok := k.(string)
		if !ok {
			continue
		}
		if v, ok := e.lookup(s); !ok || v == nil || v == "" {
			out = append(out, s)
		}
	}
	return out
}

// opAnd returns the first falsy argument, or the last one.
func (e *evaluator) opAnd(args any) any {
	arr, ok := args.([]any)
	if !ok {
		return e.resolve(args)
	}
	var last any = true
	for _, arg := range arr {
		last = e.resolve(arg)
		if !isTruthy(last) {
			return last
		}
	}
	return last
}

// opOr returns the first truthy argument, or the last one.
func (e *evaluator) opOr(args any) any {
	arr, ok := args.([]any)
	if !ok {
		return e.resolve(args)
	}
	var last any = false
	for _, arg := range arr {
		last = e.resolve(arg)
		if isTruthy(last) {
			return last
		}
	}
	return last
}

// opIf implements {"if": [c1, t1, c2, t2, ..., else]}.
func (e *evaluator) opIf(args any) any {
	arr, ok := args.([]any)
	if !ok || len(arr) < 2 {
		return nil
	}
	for i := 0; i+1 < len(arr); i += 2 {
		if isTruthy(e.resolve(arr[i])) {
			return e.resolve(arr[i+1])
		}
	}
	if len(arr)%2 == 1 {
		return e.resolve(arr[len(arr)-1])
	}
	return nil
}

// opIn checks membership in an array or substring containment.
func opIn(needle, haystack any) bool {
	if needle == nil || haystack == nil {
		return false
	}
	switch h := haystack.(type) {
	case []any:
		for _, item := range h {
			if looseEqual(needle, item) {
				return true
			}
		}
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(h, s)
	}
	return false
}

// isTruthy follows JSON-logic: nil, false, 0, "" and empty collections are
// falsy.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
