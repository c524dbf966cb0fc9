package dsl

import (
	formskema "github.com/reoring/formskema"
)

// Type is anything a field or array member can be declared with.
type Type interface {
	Build() (*formskema.SchemaType, error)
}

// PrimitiveBuilder declares a string, number or boolean type.
type PrimitiveBuilder struct {
	t formskema.SchemaType
}

// String creates a string type.
func String() *PrimitiveBuilder { return primitive(formskema.KindString) }

// Number creates a number type.
func Number() *PrimitiveBuilder { return primitive(formskema.KindNumber) }

// Boolean creates a boolean type.
func Boolean() *PrimitiveBuilder { return primitive(formskema.KindBoolean) }

func primitive(k formskema.Kind) *PrimitiveBuilder {
	return &PrimitiveBuilder{t: formskema.SchemaType{Kind: k, Name: k.JSONType()}}
}

// Name overrides the type name (defaults to the JSON type).
func (b *PrimitiveBuilder) Name(name string) *PrimitiveBuilder {
	b.t.Name = name
	return b
}

func (b *PrimitiveBuilder) Title(s string) *PrimitiveBuilder {
	b.t.Title = s
	return b
}

func (b *PrimitiveBuilder) Description(s string) *PrimitiveBuilder {
	b.t.Description = s
	return b
}

func (b *PrimitiveBuilder) Hidden(c formskema.Conditional) *PrimitiveBuilder {
	b.t.Hidden = c
	return b
}

func (b *PrimitiveBuilder) ReadOnly(c formskema.Conditional) *PrimitiveBuilder {
	b.t.ReadOnly = c
	return b
}

// Build returns a fresh copy of the declared type.
func (b *PrimitiveBuilder) Build() (*formskema.SchemaType, error) {
	t := b.t
	return &t, nil
}

// Ref embeds an already built type. Named types shared between several
// fields should be passed through Ref so they keep a single identity.
func Ref(t *formskema.SchemaType) Type { return refType{t: t} }

type refType struct{ t *formskema.SchemaType }

func (r refType) Build() (*formskema.SchemaType, error) {
	if r.t == nil {
		return nil, errNilType
	}
	return r.t, nil
}
