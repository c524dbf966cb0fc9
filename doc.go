package formskema

// Package formskema provides:
//
// - Canonical document paths (property and keyed-array segments) usable as map keys
// - A closed schema type model (object/array/string/number/boolean) with fields, fieldsets and groups
// - Conditional properties (hidden/readOnly) resolved against value, parent, document and user
// - Patch events that are prefixed as they bubble from a field to the document root
// - Path-tagged validation and presence markers, and path-shaped UI state trees
//
// Design policy:
// - Keep the data model in the root package; projection lives in form/, the
//   callback memoizer under internal/memo.
// - Place schema builders under dsl/, rule builders under rules/, file loading
//   under schemafile/ and the CLI under cmd/formskema.
// - Projection is a pure function of its inputs; all mutation flows out through callbacks.
//
// Typical usage:
//
//  post := dsl.Object("post").
//      Field("title", dsl.String()).
//      Field("body", dsl.Array(block)).
//      MustBuild()
//
//  p := form.NewProjector(handlers, form.Options{})
//  props, err := p.Project(post, doc, form.AmbientState{}, user)
//
