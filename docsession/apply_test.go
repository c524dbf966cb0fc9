package docsession_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/docsession"
)

var (
	F = formskema.Field
	K = formskema.Key
)

func TestApply_SetCreatesIntermediates(t *testing.T) {
	doc := formskema.Document{"title": "a"}
	out, err := docsession.Apply(doc, formskema.PatchEventFrom(formskema.Set("Ada", F("author"), F("name"))))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "Ada"}, out["author"])
	assert.NotContains(t, doc, "author", "input document must not change")
}

func TestApply_SetIfMissing(t *testing.T) {
	doc := formskema.Document{"body": []any{map[string]any{"_key": "a"}}}
	ev := formskema.PatchEventFrom(
		formskema.SetIfMissing([]any{}, F("body")),
		formskema.SetIfMissing("x", F("title")),
	)
	out, err := docsession.Apply(doc, ev)
	require.NoError(t, err)

	assert.Len(t, out["body"], 1, "existing value is kept")
	assert.Equal(t, "x", out["title"])
}

func TestApply_UnsetMissingIsNoop(t *testing.T) {
	doc := formskema.Document{"a": 1.0}
	out, err := docsession.Apply(doc, formskema.PatchEventFrom(formskema.Unset(F("b"), F("c")), formskema.Unset(F("a"))))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestApply_KeyedPaths(t *testing.T) {
	doc := formskema.Document{"body": []any{
		map[string]any{"_key": "a", "text": "one"},
		map[string]any{"_key": "b", "text": "two"},
	}}
	out, err := docsession.Apply(doc, formskema.PatchEventFrom(
		formskema.Set("TWO", F("body"), K("b"), F("text")),
		formskema.Unset(F("body"), K("a")),
	))
	require.NoError(t, err)

	body := out["body"].([]any)
	require.Len(t, body, 1)
	assert.Equal(t, "TWO", body[0].(map[string]any)["text"])
	assert.Equal(t, "two", doc["body"].([]any)[1].(map[string]any)["text"], "input item must not change")

	_, err = docsession.Apply(doc, formskema.PatchEventFrom(formskema.Set("x", F("body"), K("zzz"), F("text"))))
	assert.ErrorIs(t, err, docsession.ErrPatchTarget)
}

func TestApply_Insert(t *testing.T) {
	doc := formskema.Document{"body": []any{
		map[string]any{"_key": "a"},
		map[string]any{"_key": "c"},
	}}
	out, err := docsession.Apply(doc, formskema.PatchEventFrom(
		formskema.Insert([]any{map[string]any{"_key": "b"}}, formskema.After, F("body"), K("a")),
		formskema.Insert([]any{map[string]any{"_key": "z"}}, formskema.Before, F("body")),
		formskema.Insert([]any{map[string]any{"text": "new"}}, formskema.After, F("body")),
	))
	require.NoError(t, err)

	body := out["body"].([]any)
	require.Len(t, body, 5)
	var keys []string
	for _, item := range body {
		keys = append(keys, item.(map[string]any)["_key"].(string))
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, keys[:4])
	assert.NotEmpty(t, keys[4], "inserted items get a key")
}

func TestApply_InsertAfterGuard(t *testing.T) {
	// the event an array field emits for an insert into a missing array
	ev := formskema.PatchEventFrom(
		formskema.SetIfMissing([]any{}, F("body")),
		formskema.Insert([]any{map[string]any{"_key": "k"}}, formskema.After, F("body")),
	)
	out, err := docsession.Apply(formskema.Document{}, ev)
	require.NoError(t, err)
	assert.Len(t, out["body"], 1)
}

func TestApply_InsertIntoNonArray(t *testing.T) {
	_, err := docsession.Apply(formskema.Document{"body": "text"}, formskema.PatchEventFrom(
		formskema.Insert([]any{"x"}, formskema.After, F("body")),
	))
	assert.ErrorIs(t, err, docsession.ErrPatchTarget)
}
