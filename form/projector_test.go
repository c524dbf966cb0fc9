package form_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/dsl"
	"github.com/reoring/formskema/form"
	"github.com/reoring/formskema/rules"
)

var (
	F = formskema.Field
	K = formskema.Key
)

type recorder struct {
	events []formskema.PatchEvent
	focus  []formskema.Path
}

func (r *recorder) handlers() form.Handlers {
	return form.Handlers{
		OnChange: func(ev formskema.PatchEvent) { r.events = append(r.events, ev) },
		OnFocus:  func(p formskema.Path) { r.focus = append(r.focus, p) },
	}
}

func (r *recorder) last(t *testing.T) []formskema.PatchOp {
	t.Helper()
	require.NotEmpty(t, r.events)
	return r.events[len(r.events)-1].Patches
}

func articleType(t *testing.T) *formskema.SchemaType {
	t.Helper()
	typ, err := dsl.Object("article").
		Field("title", dsl.String()).
		Field("body", dsl.Array(dsl.Object("block").Field("text", dsl.String()))).
		Field("a", dsl.Array(dsl.Object("section").Field("b", dsl.String()))).
		Build()
	require.NoError(t, err)
	return typ
}

func TestProject_TitleAndMissingBodyInsert(t *testing.T) {
	rec := &recorder{}
	p := form.NewProjector(rec.handlers(), form.Options{})
	root, err := p.Project(articleType(t), formskema.Document{"title": "Hello"}, form.AmbientState{}, nil)
	require.NoError(t, err)

	require.Len(t, root.Members, 3)
	title := root.Members[0].Field
	require.NotNil(t, title)
	assert.Equal(t, "Hello", title.Value)
	body := root.Field("body")
	require.NotNil(t, body)
	assert.Empty(t, body.Array.Members)

	body.Array.OnInsert.Call(form.InsertEvent{Items: []any{map[string]any{"_key": "n"}}, Position: formskema.After})
	ops := rec.last(t)
	require.Len(t, ops, 2, "the set-if-missing guard must not be duplicated")
	assert.Equal(t, formskema.PatchSetIfMissing, ops[0].Type)
	assert.Equal(t, "body", ops[0].Path.String())
	assert.Equal(t, []any{}, ops[0].Value)
	assert.Equal(t, formskema.PatchInsert, ops[1].Type)
	assert.Equal(t, "body", ops[1].Path.String())
	assert.Equal(t, formskema.After, ops[1].Position)
}

func TestProject_InsertNextToItem(t *testing.T) {
	rec := &recorder{}
	p := form.NewProjector(rec.handlers(), form.Options{})
	doc := formskema.Document{"body": []any{map[string]any{"_key": "x", "text": "t"}}}
	root, err := p.Project(articleType(t), doc, form.AmbientState{}, nil)
	require.NoError(t, err)

	root.Field("body").Array.OnInsert.Call(form.InsertEvent{
		Items:        []any{map[string]any{"_key": "y"}},
		Position:     formskema.Before,
		Reference:    K("x"),
		HasReference: true,
	})
	ops := rec.last(t)
	insert := ops[len(ops)-1]
	assert.Equal(t, `body[_key=="x"]`, insert.Path.String())
	assert.Equal(t, formskema.Before, insert.Position)
}

func TestProject_PathPrefixComposition(t *testing.T) {
	rec := &recorder{}
	p := form.NewProjector(rec.handlers(), form.Options{})
	doc := formskema.Document{"a": []any{map[string]any{"_key": "k", "b": "old"}}}
	root, err := p.Project(articleType(t), doc, form.AmbientState{}, nil)
	require.NoError(t, err)

	node, ok := form.Find(root, formskema.PathOf(F("a"), K("k"), F("b")))
	require.True(t, ok)
	require.NotNil(t, node.Field)
	assert.Equal(t, `a[_key=="k"].b`, node.Field.Path.String())

	node.OnChange().Call(formskema.PatchEventFrom(formskema.Set("new")))
	ops := rec.last(t)
	set := ops[len(ops)-1]
	assert.Equal(t, formskema.PatchSet, set.Type)
	assert.True(t, formskema.Equal(formskema.PathOf(F("a"), K("k"), F("b")), set.Path))
	for _, op := range ops[:len(ops)-1] {
		assert.Equal(t, formskema.PatchSetIfMissing, op.Type, "only guards precede the edit")
	}
}

func TestProject_Deterministic(t *testing.T) {
	typ := articleType(t)
	doc := formskema.Document{
		"title": "x",
		"body":  []any{map[string]any{"_key": "1", "text": "a"}, map[string]any{"_key": "2", "text": "b"}},
	}
	first, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, doc, form.AmbientState{}, nil)
	require.NoError(t, err)
	second, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, doc, form.AmbientState{}, nil)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	var keys []string
	for _, m := range first.Members {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"field-title", "field-body", "field-a"}, keys)
	items := first.Field("body").Array.Members
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Key)
	assert.Equal(t, "2", items[1].Key)
}

func TestProject_FocusPathOmittedWhenUnfocused(t *testing.T) {
	inner := dsl.Object("inner").Field("x", dsl.String())
	typ, err := dsl.Object("doc").Field("inner", inner).Build()
	require.NoError(t, err)
	p := form.NewProjector(form.Handlers{}, form.Options{})

	root, err := p.Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	data, err := json.Marshal(root)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "focusPath")

	state := form.AmbientState{FocusPath: formskema.PathOf(F("inner"), F("x"))}
	root, err = p.Project(typ, formskema.Document{}, state, nil)
	require.NoError(t, err)
	data, err = json.Marshal(root)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"focusPath":"inner.x"`)
	assert.Contains(t, string(data), `"focusPath":"x"`)
}

func TestProject_CallbacksStableAcrossPasses(t *testing.T) {
	typ := articleType(t)
	p := form.NewProjector(form.Handlers{}, form.Options{})
	doc := formskema.Document{"body": []any{map[string]any{"_key": "1", "text": "a"}}}
	first, err := p.Project(typ, doc, form.AmbientState{}, nil)
	require.NoError(t, err)

	// an unrelated edit must not re-create callbacks
	doc2 := formskema.Document{"title": "changed", "body": doc["body"]}
	second, err := p.Project(typ, doc2, form.AmbientState{}, nil)
	require.NoError(t, err)

	assert.Same(t, first.Field("title").OnChange, second.Field("title").OnChange)
	assert.Same(t, first.Field("body").Array.OnInsert, second.Field("body").Array.OnInsert)
	item1 := first.Field("body").Array.Item("1")
	item2 := second.Field("body").Array.Item("1")
	assert.Same(t, item1.OnChange, item2.OnChange)
	assert.Same(t, item1.Field("text").OnFocus, item2.Field("text").OnFocus)
	assert.NotSame(t, first.Field("title").OnChange, first.Field("body").OnChange)
}

func TestProject_ReleasesCallbacksOfRemovedItems(t *testing.T) {
	typ := articleType(t)
	p := form.NewProjector(form.Handlers{}, form.Options{})
	two := formskema.Document{"body": []any{
		map[string]any{"_key": "1", "text": "a"},
		map[string]any{"_key": "2", "text": "b"},
	}}
	first, err := p.Project(typ, two, form.AmbientState{}, nil)
	require.NoError(t, err)
	full := p.CachedCallbacks()

	one := formskema.Document{"body": []any{map[string]any{"_key": "1", "text": "a"}}}
	second, err := p.Project(typ, one, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Less(t, p.CachedCallbacks(), full)
	assert.Same(t, first.Field("body").Array.Item("1").OnChange, second.Field("body").Array.Item("1").OnChange)

	third, err := p.Project(typ, two, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, full, p.CachedCallbacks())
	assert.NotSame(t, first.Field("body").Array.Item("2").OnChange, third.Field("body").Array.Item("2").OnChange)
}

func TestSetHandlers_EvictsCallbacks(t *testing.T) {
	typ := articleType(t)
	old := &recorder{}
	p := form.NewProjector(old.handlers(), form.Options{})
	first, err := p.Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	require.Positive(t, p.CachedCallbacks())

	fresh := &recorder{}
	p.SetHandlers(fresh.handlers())
	assert.Zero(t, p.CachedCallbacks(), "all callbacks hang off the root handlers")

	second, err := p.Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.NotSame(t, first.Field("title").OnChange, second.Field("title").OnChange)

	second.Field("title").OnChange.Call(formskema.PatchEventFrom(formskema.Set("x")))
	assert.Empty(t, old.events)
	assert.Len(t, fresh.events, 1)
}

func TestProject_GroupFiltering(t *testing.T) {
	typ, err := dsl.Object("doc").
		Group("g1", dsl.GroupOptions{Default: true}).
		Group("g2", dsl.GroupOptions{}).
		Field("x", dsl.String()).Group("g1").
		Field("y", dsl.String()).Group("g2").
		Build()
	require.NoError(t, err)
	p := form.NewProjector(form.Handlers{}, form.Options{})

	root, err := p.Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"field-x"}, memberKeys(root))
	g, _ := root.SelectedGroup()
	assert.Equal(t, "g1", g.Name)

	state := form.AmbientState{FieldGroupState: (*formskema.StateTree[string])(nil).SetAt(nil, "g2")}
	root, err = p.Project(typ, formskema.Document{}, state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"field-y"}, memberKeys(root))
}

func TestProject_HiddenGroupFallsBack(t *testing.T) {
	typ, err := dsl.Object("doc").
		Group("g1", dsl.GroupOptions{Default: true, Hidden: formskema.Static(true)}).
		Group("g2", dsl.GroupOptions{}).
		Field("x", dsl.String()).Group("g1").
		Field("y", dsl.String()).Group("g2").
		Build()
	require.NoError(t, err)
	root, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	require.Len(t, root.Groups, 1)
	assert.Equal(t, []string{"field-y"}, memberKeys(root))
}

func TestProject_FieldsetHiddenWhenAllMembersHidden(t *testing.T) {
	typ, err := dsl.Object("doc").
		Fieldset("meta", dsl.FieldsetOptions{Title: "Meta"}).
		Field("title", dsl.String()).
		Field("a", dsl.String()).Fieldset("meta").Hidden(formskema.Static(true)).
		Field("b", dsl.String()).Fieldset("meta").Hidden(rules.IfParent("/title", rules.Eq, "hide")).
		Build()
	require.NoError(t, err)
	p := form.NewProjector(form.Handlers{}, form.Options{})

	root, err := p.Project(typ, formskema.Document{"title": "hide"}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"field-title"}, memberKeys(root), "the fieldset is absent, not present-but-empty")

	root, err = p.Project(typ, formskema.Document{"title": "show"}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"field-title", "fieldset-meta"}, memberKeys(root))
	fs := root.Members[1].FieldSet
	require.Len(t, fs.Fields, 1)
	assert.Equal(t, "b", fs.Fields[0].Field.Name)
}

func TestProject_FieldsetHiddenRuleSeesPickedValue(t *testing.T) {
	var seen any
	typ, err := dsl.Object("doc").
		Fieldset("meta", dsl.FieldsetOptions{Hidden: formskema.ConditionalFunc(func(ctx formskema.ConditionalContext) (bool, error) {
			seen = ctx.Value
			return false, nil
		})}).
		Field("title", dsl.String()).
		Field("a", dsl.String()).Fieldset("meta").
		Build()
	require.NoError(t, err)
	_, err = form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{"title": "t", "a": "v"}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "v"}, seen)
}

func TestProject_ArrayItemHiddenIsFatal(t *testing.T) {
	item := dsl.Object("item").Hidden(formskema.Static(true)).Field("x", dsl.String())
	typ, err := dsl.Object("doc").Field("list", dsl.Array(item)).Build()
	require.NoError(t, err)

	doc := formskema.Document{"list": []any{map[string]any{"_key": "k", "x": "v"}}}
	_, err = form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, doc, form.AmbientState{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, formskema.ErrArrayItemHidden))
}

func TestProject_RootHiddenAndObjectWithoutMembers(t *testing.T) {
	hidden, err := dsl.Object("doc").Hidden(formskema.Static(true)).Field("x", dsl.String()).Build()
	require.NoError(t, err)
	root, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(hidden, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Nil(t, root)

	inner := dsl.Object("inner").Field("x", dsl.String()).Hidden(formskema.Static(true))
	typ, err := dsl.Object("doc").Field("title", dsl.String()).Field("inner", inner).Build()
	require.NoError(t, err)
	root, err = form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	assert.Nil(t, root.Field("inner"), "an object with no visible member is hidden")
}

func TestProject_DepthGuard(t *testing.T) {
	node := dsl.Object("node")
	node.Field("label", dsl.String())
	node.Field("child", node)
	typ, err := node.Build()
	require.NoError(t, err)

	p := form.NewProjector(form.Handlers{}, form.Options{MaxDepth: 3})
	root, err := p.Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)

	depth := 0
	for cur := root; cur != nil; {
		depth++
		f := cur.Field("child")
		if f == nil {
			break
		}
		cur = f.Object
	}
	assert.Equal(t, 3, depth, "levels 0..2 are projected, level 3 is cut")
}

func TestProject_ArrayAtDepthLimitIsHidden(t *testing.T) {
	node := dsl.Object("node")
	node.Field("label", dsl.String())
	node.Field("children", dsl.Array(node))
	typ, err := node.Build()
	require.NoError(t, err)

	doc := formskema.Document{"children": []any{
		map[string]any{"_key": "a", "children": []any{map[string]any{"_key": "b"}}},
	}}
	root, err := form.NewProjector(form.Handlers{}, form.Options{MaxDepth: 3}).Project(typ, doc, form.AmbientState{}, nil)
	require.NoError(t, err, "items never reach the depth guard, so nothing reads as hidden")
	a := root.Field("children").Array.Item("a")
	require.NotNil(t, a)
	assert.Nil(t, a.Field("children"))
}

func TestProject_ReadOnlyInherited(t *testing.T) {
	inner := dsl.Object("inner").Field("deep", dsl.Object("deeper").Field("leaf", dsl.String()))
	typ, err := dsl.Object("doc").
		ReadOnly(rules.HasRole("viewer")).
		Field("inner", inner).
		Build()
	require.NoError(t, err)

	viewer := &formskema.CurrentUser{ID: "v", Roles: []formskema.Role{{Name: "viewer"}}}
	root, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{}, form.AmbientState{}, viewer)
	require.NoError(t, err)
	leaf, ok := form.Find(root, formskema.PathOf(F("inner"), F("deep"), F("leaf")))
	require.True(t, ok)
	assert.True(t, leaf.Field.ReadOnly)

	root, err = form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.NoError(t, err)
	leaf, _ = form.Find(root, formskema.PathOf(F("inner"), F("deep"), F("leaf")))
	assert.False(t, leaf.Field.ReadOnly)
}

func TestProject_CollapseNarrowsMarkers(t *testing.T) {
	inner := dsl.Object("inner").
		Options(formskema.TypeOptions{Collapsible: formskema.Bool(true), Collapsed: formskema.Bool(true)}).
		Field("x", dsl.String())
	typ, err := dsl.Object("doc").Field("inner", inner).Build()
	require.NoError(t, err)

	markers := []formskema.ValidationMarker{
		{Path: formskema.PathOf(F("inner")), Level: formskema.LevelError, Code: formskema.CodeCustom, Message: "self"},
		{Path: formskema.PathOf(F("inner"), F("x")), Level: formskema.LevelError, Code: formskema.CodeRequired, Message: "child"},
	}
	p := form.NewProjector(form.Handlers{}, form.Options{})

	root, err := p.Project(typ, formskema.Document{}, form.AmbientState{Validation: markers}, nil)
	require.NoError(t, err)
	f := root.Field("inner")
	require.True(t, f.Collapsed)
	require.Len(t, f.Validation, 1)
	assert.Equal(t, "self", f.Validation[0].Message)

	expanded := (*formskema.StateTree[bool])(nil).SetAt(formskema.PathOf(F("inner")), true)
	root, err = p.Project(typ, formskema.Document{}, form.AmbientState{Validation: markers, ExpandedPaths: expanded}, nil)
	require.NoError(t, err)
	f = root.Field("inner")
	assert.False(t, f.Collapsed)
	assert.Len(t, f.Validation, 2)
	x := f.Object.Field("x")
	require.Len(t, x.Validation, 1)
	assert.Equal(t, "child", x.Validation[0].Message)
}

func TestProject_FocusAndCollapseCallbacks(t *testing.T) {
	var expanded []bool
	var paths []string
	rec := &recorder{}
	h := rec.handlers()
	h.OnSetExpandedPath = func(e bool, p formskema.Path) {
		expanded = append(expanded, e)
		paths = append(paths, p.String())
	}
	inner := dsl.Object("inner").Field("x", dsl.String())
	typ, err := dsl.Object("doc").Field("inner", inner).Build()
	require.NoError(t, err)

	state := form.AmbientState{FocusPath: formskema.PathOf(F("inner"), F("x"))}
	root, err := form.NewProjector(h, form.Options{}).Project(typ, formskema.Document{}, state, nil)
	require.NoError(t, err)

	f := root.Field("inner")
	require.NotNil(t, f.FocusPath)
	assert.Equal(t, "x", f.FocusPath.String())
	assert.True(t, f.Object.Field("x").Focused)
	assert.Nil(t, f.Object.Field("x").FocusPath, "the focused node has nothing below it")

	f.Object.OnSetCollapsed.Call(true)
	assert.Equal(t, []bool{false}, expanded)
	assert.Equal(t, []string{"inner"}, paths)

	f.Object.Field("x").OnFocus.Fire()
	require.Len(t, rec.focus, 1)
	assert.Equal(t, "inner.x", rec.focus[0].String())
}

func TestProject_ConditionalErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	typ, err := dsl.Object("doc").
		Field("x", dsl.String().Hidden(formskema.ConditionalFunc(func(formskema.ConditionalContext) (bool, error) {
			return false, boom
		}))).
		Build()
	require.NoError(t, err)
	_, err = form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, formskema.Document{}, form.AmbientState{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "field at /x")
}

func TestProject_SkipsUnaddressableItems(t *testing.T) {
	typ, err := dsl.Object("doc").Field("list", dsl.Array(dsl.Object("item").Field("x", dsl.String()), dsl.String())).Build()
	require.NoError(t, err)
	doc := formskema.Document{"list": []any{
		"plain string",
		map[string]any{"_type": "item", "x": "no key"},
		map[string]any{"_key": "ok", "_type": "item", "x": "v"},
		map[string]any{"_key": "bad", "_type": "unknown"},
	}}
	root, err := form.NewProjector(form.Handlers{}, form.Options{}).Project(typ, doc, form.AmbientState{}, nil)
	require.NoError(t, err)
	members := root.Field("list").Array.Members
	require.Len(t, members, 1)
	assert.Equal(t, "ok", members[0].Key)
}
