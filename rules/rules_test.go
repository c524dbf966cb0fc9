package rules_test

import (
	"errors"
	"testing"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/rules"
)

func ctxOf(value, parent any, doc formskema.Document, user *formskema.CurrentUser) formskema.ConditionalContext {
	return formskema.ConditionalContext{Value: value, Parent: parent, Document: doc, CurrentUser: user}
}

func mustResolve(t *testing.T, c formskema.Conditional, ctx formskema.ConditionalContext) bool {
	t.Helper()
	v, err := c.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return v
}

func TestIf_Sources(t *testing.T) {
	doc := formskema.Document{"kind": "draft", "count": float64(3)}
	parent := map[string]any{"mode": "advanced"}
	ctx := ctxOf("x", parent, doc, nil)

	if !mustResolve(t, rules.If("", rules.Eq, "x"), ctx) {
		t.Fatalf("expected value == x")
	}
	if !mustResolve(t, rules.IfParent("mode", rules.Eq, "advanced"), ctx) {
		t.Fatalf("expected parent mode match")
	}
	if mustResolve(t, rules.IfDocument("/kind", rules.Eq, "published"), ctx) {
		t.Fatalf("expected document kind mismatch")
	}
	if !mustResolve(t, rules.IfDocument("/count", rules.Ge, 3), ctx) {
		t.Fatalf("expected numeric comparison across int and float64")
	}
}

func TestIf_MissingPath(t *testing.T) {
	ctx := ctxOf(map[string]any{}, nil, nil, nil)
	if !mustResolve(t, rules.If("/missing", rules.Eq, nil), ctx) {
		t.Fatalf("missing value should equal nil")
	}
	if !mustResolve(t, rules.If("/missing", rules.Ne, "a"), ctx) {
		t.Fatalf("missing value should differ from a string")
	}
	if mustResolve(t, rules.If("/missing", rules.Gt, 1), ctx) {
		t.Fatalf("ordered comparison on a missing value should be false")
	}
	if mustResolve(t, rules.If("/missing", rules.Set, nil), ctx) {
		t.Fatalf("missing value is not set")
	}
}

func TestValueAt_ArrayKeysAndIndexes(t *testing.T) {
	doc := map[string]any{
		"items": []any{
			map[string]any{"_key": "a", "title": "first"},
			map[string]any{"_key": "b", "title": "second"},
		},
	}
	if v, ok := rules.ValueAt(doc, "/items/b/title"); !ok || v != "second" {
		t.Fatalf("by key: got %v %v", v, ok)
	}
	if v, ok := rules.ValueAt(doc, "/items/0/title"); !ok || v != "first" {
		t.Fatalf("by index: got %v %v", v, ok)
	}
	if _, ok := rules.ValueAt(doc, "/items/9"); ok {
		t.Fatalf("out of range index should not resolve")
	}
}

func TestComposite(t *testing.T) {
	user := &formskema.CurrentUser{ID: "u1", Roles: []formskema.Role{{Name: "editor"}}}
	ctx := ctxOf(map[string]any{"a": 1.0, "b": "x"}, nil, nil, user)

	all := rules.If("/a", rules.Eq, 1).And(rules.If("/b", rules.Eq, "x"))
	if !mustResolve(t, all, ctx) {
		t.Fatalf("expected all to hold")
	}
	anyOf := rules.If("/a", rules.Eq, 2).Or(rules.If("/b", rules.Eq, "x"))
	if !mustResolve(t, anyOf, ctx) {
		t.Fatalf("expected any to hold")
	}
	if mustResolve(t, rules.Not(rules.HasRole("editor")), ctx) {
		t.Fatalf("editor role should be present")
	}
	if mustResolve(t, rules.HasRole("admin"), ctxOf(nil, nil, nil, nil)) {
		t.Fatalf("no user means no roles")
	}
}

func TestLogic_Operators(t *testing.T) {
	user := &formskema.CurrentUser{ID: "u1", Roles: []formskema.Role{{Name: "admin"}}}
	ctx := ctxOf("draft", map[string]any{"n": 5.0}, formskema.Document{"title": "hello"}, user)

	cases := []struct {
		name string
		expr string
		want bool
	}{
		{"var equality", `{"==": [{"var": "value"}, "draft"]}`, true},
		{"not equal", `{"!=": [{"var": "document.title"}, "hello"]}`, false},
		{"parent ordered", `{">": [{"var": "parent.n"}, 3]}`, true},
		{"between", `{"<": [1, {"var": "parent.n"}, 10]}`, true},
		{"role in", `{"in": ["admin", {"var": "currentUser.roles"}]}`, true},
		{"substring", `{"in": ["ell", {"var": "document.title"}]}`, true},
		{"double bang", `{"!!": [{"var": "document.missing"}]}`, false},
		{"not", `{"!": [{"var": "document.missing"}]}`, true},
		{"if", `{"if": [{"var": "document.title"}, true, false]}`, true},
		{"and or", `{"or": [false, {"and": [true, {"var": "value"}]}]}`, true},
		{"missing", `{"missing": ["document.title", "document.body"]}`, true},
		{"var default", `{"==": [{"var": ["document.body", "none"]}, "none"]}`, true},
		{"literal", `true`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := rules.ParseLogic([]byte(tc.expr))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := mustResolve(t, rule, ctx); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestLogic_UnknownOperator(t *testing.T) {
	rule := rules.Logic(map[string]any{"frobnicate": []any{1}})
	_, err := rule.Resolve(ctxOf(nil, nil, nil, nil))
	if !errors.Is(err, rules.ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestLogic_ErrorPropagatesThroughProperties(t *testing.T) {
	typ := &formskema.SchemaType{Kind: formskema.KindString, Name: "string", Hidden: rules.Logic(map[string]any{"nope": nil})}
	_, err := formskema.CallConditionalProperties(typ, ctxOf(nil, nil, nil, nil), formskema.PropHidden)
	if !errors.Is(err, rules.ErrUnknownOperator) {
		t.Fatalf("expected wrapped ErrUnknownOperator, got %v", err)
	}
}
