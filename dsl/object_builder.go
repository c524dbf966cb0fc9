package dsl

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

var errNilType = errors.New("nil type")

// FieldsetOptions configures a real (non-single) fieldset.
type FieldsetOptions struct {
	Title   string
	Hidden  formskema.Conditional
	Options formskema.TypeOptions
}

// GroupOptions configures a field group.
type GroupOptions struct {
	Title   string
	Default bool
	Hidden  formskema.Conditional
}

type fieldEntry struct {
	name     string
	typ      Type
	groups   []string
	fieldset string
	required bool
	title    string
	hidden   formskema.Conditional
	readOnly formskema.Conditional
	options  *formskema.TypeOptions
}

type fieldsetEntry struct {
	name string
	opts FieldsetOptions
}

// ObjectBuilder declares an object type.
type ObjectBuilder struct {
	t         formskema.SchemaType
	fields    []*fieldEntry
	fieldsets []fieldsetEntry
	groups    []*formskema.GroupDef

	// out is allocated on the first Build so self references resolve to
	// the same pointer.
	out *formskema.SchemaType
	err error
}

// FieldStep configures the field declared last.
type FieldStep struct {
	b *ObjectBuilder
	e *fieldEntry
}

// Object creates a new object builder. An empty name yields "object".
func Object(name string) *ObjectBuilder {
	if name == "" {
		name = "object"
	}
	return &ObjectBuilder{t: formskema.SchemaType{Kind: formskema.KindObject, Name: name}}
}

func (b *ObjectBuilder) Title(s string) *ObjectBuilder {
	b.t.Title = s
	return b
}

func (b *ObjectBuilder) Description(s string) *ObjectBuilder {
	b.t.Description = s
	return b
}

func (b *ObjectBuilder) Hidden(c formskema.Conditional) *ObjectBuilder {
	b.t.Hidden = c
	return b
}

func (b *ObjectBuilder) ReadOnly(c formskema.Conditional) *ObjectBuilder {
	b.t.ReadOnly = c
	return b
}

func (b *ObjectBuilder) Options(o formskema.TypeOptions) *ObjectBuilder {
	b.t.Options = o
	return b
}

// Field appends a field. Declaration order is the rendering order.
func (b *ObjectBuilder) Field(name string, t Type) *FieldStep {
	e := &fieldEntry{name: name, typ: t}
	b.fields = append(b.fields, e)
	return &FieldStep{b: b, e: e}
}

// Fieldset declares a named fieldset. Fields join it with FieldStep.Fieldset.
func (b *ObjectBuilder) Fieldset(name string, opts FieldsetOptions) *ObjectBuilder {
	b.fieldsets = append(b.fieldsets, fieldsetEntry{name: name, opts: opts})
	return b
}

// Group declares a field group. Groups keep their declaration order.
func (b *ObjectBuilder) Group(name string, opts GroupOptions) *ObjectBuilder {
	b.groups = append(b.groups, &formskema.GroupDef{Name: name, Title: opts.Title, Default: opts.Default, Hidden: opts.Hidden})
	return b
}

// Group adds the field to one or more groups.
func (s *FieldStep) Group(names ...string) *FieldStep {
	s.e.groups = append(s.e.groups, names...)
	return s
}

// Fieldset places the field in the named fieldset.
func (s *FieldStep) Fieldset(name string) *FieldStep {
	s.e.fieldset = name
	return s
}

// Required marks the field as required.
func (s *FieldStep) Required() *FieldStep {
	s.e.required = true
	return s
}

// Title overrides the title of the field's type.
func (s *FieldStep) Title(t string) *FieldStep {
	s.e.title = t
	return s
}

func (s *FieldStep) Hidden(c formskema.Conditional) *FieldStep {
	s.e.hidden = c
	return s
}

func (s *FieldStep) ReadOnly(c formskema.Conditional) *FieldStep {
	s.e.readOnly = c
	return s
}

func (s *FieldStep) Options(o formskema.TypeOptions) *FieldStep {
	s.e.options = &o
	return s
}

// Field declares the next field.
func (s *FieldStep) Field(name string, t Type) *FieldStep { return s.b.Field(name, t) }

// End returns the object builder.
func (s *FieldStep) End() *ObjectBuilder { return s.b }

func (s *FieldStep) Build() (*formskema.SchemaType, error) { return s.b.Build() }

func (s *FieldStep) MustBuild() *formskema.SchemaType { return s.b.MustBuild() }

// MustBuild panics on error; intended for package-level schema literals.
func (b *ObjectBuilder) MustBuild() *formskema.SchemaType {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Build compiles the object type. Repeated calls return the same pointer.
func (b *ObjectBuilder) Build() (*formskema.SchemaType, error) {
	if b.out != nil {
		// recursive reference during build, or a second Build
		if b.err != nil {
			return nil, b.err
		}
		return b.out, nil
	}
	b.out = &formskema.SchemaType{}
	t, err := b.compile()
	if err != nil {
		b.err = err
		return nil, err
	}
	*b.out = *t
	return b.out, nil
}

func (b *ObjectBuilder) compile() (*formskema.SchemaType, error) {
	var errs *multierror.Error
	name := b.t.Name
	t := b.t

	groupNames := map[string]bool{}
	defaults := 0
	for _, g := range b.groups {
		if groupNames[g.Name] {
			errs = multierror.Append(errs, errors.Errorf("object %q declares group %q twice", name, g.Name))
		}
		groupNames[g.Name] = true
		if g.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = multierror.Append(errs, errors.Errorf("object %q declares %d default groups", name, defaults))
	}
	t.Groups = append([]*formskema.GroupDef(nil), b.groups...)

	fsOpts := map[string]FieldsetOptions{}
	for _, fs := range b.fieldsets {
		if _, dup := fsOpts[fs.name]; dup {
			errs = multierror.Append(errs, errors.Errorf("object %q declares fieldset %q twice", name, fs.name))
		}
		fsOpts[fs.name] = fs.opts
	}

	seen := map[string]bool{}
	placed := map[string]*formskema.Fieldset{}
	for _, e := range b.fields {
		if seen[e.name] {
			errs = multierror.Append(errs, errors.Errorf("object %q declares field %q twice", name, e.name))
			continue
		}
		seen[e.name] = true
		if e.typ == nil {
			errs = multierror.Append(errs, errors.Wrapf(errNilType, "field %q of %q", e.name, name))
			continue
		}
		ft, err := e.typ.Build()
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "field %q of %q", e.name, name))
			continue
		}
		for _, g := range e.groups {
			if !groupNames[g] {
				errs = multierror.Append(errs, errors.Errorf("field %q of %q references unknown group %q", e.name, name, g))
			}
		}
		f := &formskema.ObjectField{
			Name:     e.name,
			Type:     ft,
			Group:    e.groups,
			Fieldset: e.fieldset,
			Required: e.required,
			Title:    e.title,
			Hidden:   e.hidden,
			ReadOnly: e.readOnly,
			Options:  e.options,
		}
		t.Fields = append(t.Fields, f)

		if e.fieldset == "" {
			t.Fieldsets = append(t.Fieldsets, &formskema.Fieldset{Name: e.name, Single: true, Field: f})
			continue
		}
		opts, ok := fsOpts[e.fieldset]
		if !ok {
			errs = multierror.Append(errs, errors.Errorf("field %q of %q references unknown fieldset %q", e.name, name, e.fieldset))
			continue
		}
		fs := placed[e.fieldset]
		if fs == nil {
			// a fieldset sits where its first member is declared
			fs = &formskema.Fieldset{Name: e.fieldset, Title: opts.Title, Hidden: opts.Hidden, Options: opts.Options}
			placed[e.fieldset] = fs
			t.Fieldsets = append(t.Fieldsets, fs)
		}
		fs.Fields = append(fs.Fields, f)
	}
	for _, fs := range b.fieldsets {
		if placed[fs.name] == nil {
			errs = multierror.Append(errs, errors.Errorf("object %q declares fieldset %q without fields", name, fs.name))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &t, nil
}
