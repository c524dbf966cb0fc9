package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formskema/schemafile"
)

const (
	blogSchema = "../../schemafile/testdata/blog.yaml"
	postDoc    = "../../schemafile/testdata/post.yaml"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types", "--schema", blogSchema)
	require.NoError(t, err)
	assert.Equal(t, "block\tobject\nimage\tobject\nperson\tobject\npost\tobject\n", out)
}

func TestTypes_NoSchema(t *testing.T) {
	_, err := run(t, "types")
	assert.ErrorContains(t, err, "no schema given")
}

func TestProject(t *testing.T) {
	out, err := run(t, "project", "--schema", blogSchema, "--validate", postDoc, postDoc)
	require.NoError(t, err)

	var got []struct {
		Document string `json:"document"`
		Form     struct {
			ID      string `json:"id"`
			Members []struct {
				Key string `json:"key"`
			} `json:"members"`
		} `json:"form"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, postDoc, got[0].Document)

	var keys []string
	for _, m := range got[0].Form.Members {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"field-title", "fieldset-meta", "field-body", "field-author"}, keys)
	assert.Equal(t, got[0], got[1])
}

func TestProject_StateAndRoles(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "ui.yaml")
	require.NoError(t, os.WriteFile(state, []byte("groups:\n  \"\": seo\n"), 0o644))

	out, err := run(t, "project", "--schema", blogSchema, "--state", state,
		"--user", "u1", "--roles", "editor", postDoc)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "seo"`)
	assert.Contains(t, out, `"id": "keywords"`)
	assert.NotContains(t, out, `"id": "title"`)
}

func TestProject_UnknownType(t *testing.T) {
	_, err := run(t, "project", "--schema", blogSchema, "--type", "nope", postDoc)
	assert.ErrorIs(t, err, schemafile.ErrUnknownType)
}

func TestEdit(t *testing.T) {
	out, err := run(t, "edit", "--schema", blogSchema, "--path", "title", "--value", "Bye", "-o", "json", postDoc)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Bye", doc["title"])
	assert.Len(t, doc["body"], 1)
}

func TestEdit_NestedAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.yaml")
	data, err := os.ReadFile(postDoc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = run(t, "edit", "--schema", blogSchema, "--path", `body[_key=="b1"].text`, "--value", `"second"`, "-w", path)
	require.NoError(t, err)

	doc, err := schemafile.LoadDocument(path)
	require.NoError(t, err)
	item := doc["body"].([]any)[0].(map[string]any)
	assert.Equal(t, "second", item["text"])
}

func TestEdit_ReadOnly(t *testing.T) {
	_, err := run(t, "edit", "--schema", blogSchema, "--path", "author.name", "--value", "x", postDoc)
	assert.ErrorContains(t, err, "read-only")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	abs, err := filepath.Abs(blogSchema)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, []byte("schema: "+abs+"\nlog-format: json\n"), 0o644))

	out, err := run(t, "types", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "post\tobject")
}
