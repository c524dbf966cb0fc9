package schemafile

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/dsl"
	"github.com/reoring/formskema/rules"
)

// ErrUnknownType is returned for references to undeclared types.
var ErrUnknownType = errors.New("unknown type")

// Registry holds compiled named types. References between types, including
// cycles, resolve to shared pointers.
type Registry struct {
	types map[string]*formskema.SchemaType
	order []string
}

// Type returns the named type.
func (r *Registry) Type(name string) (*formskema.SchemaType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the declared type names in sorted order.
func (r *Registry) Names() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}

// Compile resolves a decoded descriptor. Every defect is reported in a
// single *multierror.Error.
func Compile(f *File) (*Registry, error) {
	c := &compiler{
		decls: map[string]*TypeDesc{},
		named: map[string]*namedType{},
	}
	var errs *multierror.Error
	var order []string
	for i := range f.Types {
		d := &f.Types[i]
		switch {
		case d.Name == "":
			errs = multierror.Append(errs, errors.Errorf("type %d has no name", i))
			continue
		case isKeyword(d.Name):
			errs = multierror.Append(errs, errors.Errorf("type name %q is reserved", d.Name))
			continue
		case c.decls[d.Name] != nil:
			errs = multierror.Append(errs, errors.Errorf("type %q declared twice", d.Name))
			continue
		}
		c.decls[d.Name] = d
		order = append(order, d.Name)
	}
	for _, name := range order {
		if _, err := c.ref(name); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	reg := &Registry{types: map[string]*formskema.SchemaType{}, order: order}
	// objects first: they anchor cycles that pass through arrays
	for _, pass := range []bool{true, false} {
		for _, name := range order {
			if (c.decls[name].Type == "object") != pass {
				continue
			}
			t, err := c.named[name].Build()
			if err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "type %q", name))
				continue
			}
			reg.types[name] = t
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return reg, nil
}

func isKeyword(s string) bool {
	switch s {
	case "object", "array", "string", "number", "boolean":
		return true
	}
	return false
}

type compiler struct {
	decls map[string]*TypeDesc
	named map[string]*namedType
}

// namedType builds a declared type once. Types that reach themselves
// without passing through an object cannot be represented.
type namedType struct {
	name     string
	b        dsl.Type
	out      *formskema.SchemaType
	err      error
	building bool
}

func (n *namedType) Build() (*formskema.SchemaType, error) {
	if n.out != nil || n.err != nil {
		return n.out, n.err
	}
	if n.building {
		if ob, ok := n.b.(*dsl.ObjectBuilder); ok {
			// self reference: the builder hands out its placeholder
			return ob.Build()
		}
		return nil, errors.Errorf("type %q contains itself without an enclosing object", n.name)
	}
	n.building = true
	n.out, n.err = n.b.Build()
	n.building = false
	return n.out, n.err
}

// ref returns the builder of a declared type, creating it on first use.
func (c *compiler) ref(name string) (dsl.Type, error) {
	if n, ok := c.named[name]; ok {
		return n, nil
	}
	d, ok := c.decls[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", name)
	}
	n := &namedType{name: name}
	c.named[name] = n
	b, err := c.build(d, name)
	if err != nil {
		return nil, errors.Wrapf(err, "type %q", name)
	}
	n.b = b
	return n, nil
}

// build returns a builder for d. Keyword types are built inline with the
// given name; anything else is a reference.
func (c *compiler) build(d *TypeDesc, name string) (dsl.Type, error) {
	hidden, err := parseRule(d.Hidden)
	if err != nil {
		return nil, errors.Wrap(err, "hidden")
	}
	readOnly, err := parseRule(d.ReadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "readOnly")
	}

	switch d.Type {
	case "string", "number", "boolean":
		var b *dsl.PrimitiveBuilder
		switch d.Type {
		case "string":
			b = dsl.String()
		case "number":
			b = dsl.Number()
		default:
			b = dsl.Boolean()
		}
		if name != "" {
			b.Name(name)
		}
		return b.Title(d.Title).Description(d.Description).Hidden(hidden).ReadOnly(readOnly), nil

	case "array":
		var errs *multierror.Error
		of := make([]dsl.Type, 0, len(d.Of))
		for i := range d.Of {
			m, err := c.member(&d.Of[i])
			if err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "member %d", i))
				continue
			}
			of = append(of, m)
		}
		if err := errs.ErrorOrNil(); err != nil {
			return nil, err
		}
		b := dsl.Array(of...).Title(d.Title).Description(d.Description).Hidden(hidden).ReadOnly(readOnly)
		if name != "" {
			b.Name(name)
		}
		if d.Options != nil {
			b.Options(*d.Options)
		}
		return b, nil

	case "object":
		return c.object(d, name, hidden, readOnly)

	case "":
		return nil, errors.New("missing type")
	}
	return nil, errors.Errorf("%q is not a type keyword", d.Type)
}

// member resolves an array member or field type: a keyword builds an
// inline type, any other name references a declared type.
func (c *compiler) member(d *TypeDesc) (dsl.Type, error) {
	if isKeyword(d.Type) || d.Type == "" {
		return c.build(d, d.Name)
	}
	return c.ref(d.Type)
}

func (c *compiler) object(d *TypeDesc, name string, hidden, readOnly formskema.Conditional) (dsl.Type, error) {
	b := dsl.Object(name).Title(d.Title).Description(d.Description).Hidden(hidden).ReadOnly(readOnly)
	if d.Options != nil {
		b.Options(*d.Options)
	}
	var errs *multierror.Error
	for _, g := range d.Groups {
		gh, err := parseRule(g.Hidden)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "hidden of group %q", g.Name))
			continue
		}
		b.Group(g.Name, dsl.GroupOptions{Title: g.Title, Default: g.Default, Hidden: gh})
	}
	for _, fs := range d.Fieldsets {
		fh, err := parseRule(fs.Hidden)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "hidden of fieldset %q", fs.Name))
			continue
		}
		b.Fieldset(fs.Name, dsl.FieldsetOptions{Title: fs.Title, Hidden: fh, Options: fs.Options})
	}
	for i := range d.Fields {
		fd := &d.Fields[i]
		if err := c.field(b, fd); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "field %q", fd.Name))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *compiler) field(b *dsl.ObjectBuilder, fd *FieldDesc) error {
	if fd.Name == "" {
		return errors.New("field without name")
	}
	var ft dsl.Type
	var err error
	if isKeyword(fd.Type) {
		// inline types carry the field's presentation directly
		inline := fd.TypeDesc
		inline.Name = ""
		ft, err = c.build(&inline, "")
		if err != nil {
			return err
		}
		c.placeField(b.Field(fd.Name, ft), fd)
		return nil
	}
	if ft, err = c.ref(fd.Type); err != nil {
		return err
	}
	step := b.Field(fd.Name, ft)
	c.placeField(step, fd)
	if fd.Title != "" {
		step.Title(fd.Title)
	}
	if fd.Options != nil {
		step.Options(*fd.Options)
	}
	hidden, err := parseRule(fd.Hidden)
	if err != nil {
		return errors.Wrap(err, "hidden")
	}
	if hidden != nil {
		step.Hidden(hidden)
	}
	readOnly, err := parseRule(fd.ReadOnly)
	if err != nil {
		return errors.Wrap(err, "readOnly")
	}
	if readOnly != nil {
		step.ReadOnly(readOnly)
	}
	return nil
}

func (c *compiler) placeField(step *dsl.FieldStep, fd *FieldDesc) {
	step.Group(fd.Group...)
	if fd.Fieldset != "" {
		step.Fieldset(fd.Fieldset)
	}
	if fd.Required {
		step.Required()
	}
}

// parseRule turns a decoded rule into a Conditional. Absent rules are nil.
func parseRule(v any) (formskema.Conditional, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return formskema.Static(t), nil
	case map[string]any, map[any]any:
		return rules.Logic(yamlNormalizeValue(t)), nil
	}
	return nil, errors.Errorf("rule must be a boolean or a logic expression, got %T", v)
}
