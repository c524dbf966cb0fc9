package dsl

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

// ArrayBuilder declares an array type and its member types.
type ArrayBuilder struct {
	t  formskema.SchemaType
	of []Type
}

// Array creates an array whose items are instances of one of the given types.
func Array(of ...Type) *ArrayBuilder {
	return &ArrayBuilder{t: formskema.SchemaType{Kind: formskema.KindArray, Name: "array"}, of: of}
}

func (b *ArrayBuilder) Name(name string) *ArrayBuilder {
	b.t.Name = name
	return b
}

func (b *ArrayBuilder) Title(s string) *ArrayBuilder {
	b.t.Title = s
	return b
}

func (b *ArrayBuilder) Description(s string) *ArrayBuilder {
	b.t.Description = s
	return b
}

func (b *ArrayBuilder) Hidden(c formskema.Conditional) *ArrayBuilder {
	b.t.Hidden = c
	return b
}

func (b *ArrayBuilder) ReadOnly(c formskema.Conditional) *ArrayBuilder {
	b.t.ReadOnly = c
	return b
}

func (b *ArrayBuilder) Options(o formskema.TypeOptions) *ArrayBuilder {
	b.t.Options = o
	return b
}

// Build resolves the member types.
func (b *ArrayBuilder) Build() (*formskema.SchemaType, error) {
	var errs *multierror.Error
	if len(b.of) == 0 {
		errs = multierror.Append(errs, errors.Errorf("array %q declares no member types", b.t.Name))
	}
	t := b.t
	t.Of = make([]*formskema.SchemaType, 0, len(b.of))
	seen := map[string]bool{}
	for i, m := range b.of {
		mt, err := m.Build()
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "array %q member %d", b.t.Name, i))
			continue
		}
		if seen[mt.Name] {
			errs = multierror.Append(errs, errors.Errorf("array %q declares member type %q twice", b.t.Name, mt.Name))
			continue
		}
		seen[mt.Name] = true
		t.Of = append(t.Of, mt)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &t, nil
}
