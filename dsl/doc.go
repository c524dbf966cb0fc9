// Package dsl provides builders for formskema schema types.
//
// Overview
//   - Primitives: String(), Number(), Boolean().
//   - Arrays: Array(of...) with one or more member types.
//   - Objects: Object(name).Field(...).Fieldset(...).Group(...).Build().
//   - Shared types: Ref(t) embeds an already built type; field-level
//     title, rules and options are kept on the ObjectField, so the shared
//     type stays intact and recursive references keep their identity.
//
// Quickstart
//
//	post := dsl.Object("post").
//		Group("content", dsl.GroupOptions{Default: true}).
//		Group("seo", dsl.GroupOptions{}).
//		Fieldset("meta", dsl.FieldsetOptions{Title: "Metadata"}).
//		Field("title", dsl.String()).Group("content").
//		Field("slug", dsl.String()).Group("seo").Fieldset("meta").
//		Field("body", dsl.Array(dsl.Object("block").Field("text", dsl.String()))).Group("content").
//		MustBuild()
//
// Build resolves fieldsets in field declaration order: a fieldset appears
// where its first member is declared. Every schema defect found is reported
// in one error (a *multierror.Error).
//
// Recursive schemas are allowed: an ObjectBuilder that is referenced from its
// own fields resolves to the same *formskema.SchemaType.
package dsl
