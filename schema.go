package formskema

// Kind is the discriminant of SchemaType.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBoolean
)

// JSONType returns the JSON type name for the kind.
func (k Kind) JSONType() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	}
	return "unknown"
}

func (k Kind) String() string { return k.JSONType() }

// KindOf maps a JSON type name back to a Kind.
func KindOf(jsonType string) (Kind, bool) {
	switch jsonType {
	case "object":
		return KindObject, true
	case "array":
		return KindArray, true
	case "string":
		return KindString, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	}
	return 0, false
}

// IsPrimitive reports whether the kind is string, number or boolean.
func (k Kind) IsPrimitive() bool { return k >= KindString }

// TypeOptions carries presentation options declared on a type or fieldset.
type TypeOptions struct {
	Collapsible *bool `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
	Collapsed   *bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// SchemaType is a node in the content-model type tree. It is produced by a
// compile step (see dsl and schemafile) and never mutated afterwards.
type SchemaType struct {
	Kind        Kind
	Name        string
	Title       string
	Description string
	Options     TypeOptions

	Hidden   Conditional
	ReadOnly Conditional

	// Object types.
	Fields    []*ObjectField
	Fieldsets []*Fieldset
	Groups    []*GroupDef

	// Array types.
	Of []*SchemaType
}

// JSONType returns the declared JSON type of the node.
func (t *SchemaType) JSONType() string { return t.Kind.JSONType() }

// IsObject reports whether t is an object type.
func (t *SchemaType) IsObject() bool { return t != nil && t.Kind == KindObject }

// IsArray reports whether t is an array type.
func (t *SchemaType) IsArray() bool { return t != nil && t.Kind == KindArray }

// Field looks up a field of an object type by name.
func (t *SchemaType) Field(name string) *ObjectField {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Derive returns a shallow copy of t.
func (t *SchemaType) Derive() *SchemaType {
	cp := *t
	return &cp
}

// ObjectField is a named member of an object type.
type ObjectField struct {
	Name     string
	Type     *SchemaType
	Group    []string
	Fieldset string
	// Required fields are reported by validators when absent.
	Required bool

	// Title, rules and options set on the field replace the type's own for
	// this field only.
	Title    string
	Hidden   Conditional
	ReadOnly Conditional
	Options  *TypeOptions
}

// EffectiveType returns the type as seen through the field, with the
// field-level title, rules and options applied. Type itself is never
// modified, so a shared or recursive named type keeps its identity.
func (f *ObjectField) EffectiveType() *SchemaType {
	if f.Title == "" && f.Hidden == nil && f.ReadOnly == nil && f.Options == nil {
		return f.Type
	}
	t := f.Type.Derive()
	if f.Title != "" {
		t.Title = f.Title
	}
	if f.Hidden != nil {
		t.Hidden = f.Hidden
	}
	if f.ReadOnly != nil {
		t.ReadOnly = f.ReadOnly
	}
	if f.Options != nil {
		t.Options = *f.Options
	}
	return t
}

// InGroup reports whether the field is a member of group name.
func (f *ObjectField) InGroup(name string) bool {
	for _, g := range f.Group {
		if g == name {
			return true
		}
	}
	return false
}

// Fieldset is either a single pass-through field or a real named group of
// sibling fields.
type Fieldset struct {
	Name    string
	Title   string
	Single  bool
	Field   *ObjectField   // set when Single
	Fields  []*ObjectField // set otherwise
	Hidden  Conditional
	Options TypeOptions
}

// FieldNames returns the names of the fields in the fieldset.
func (fs *Fieldset) FieldNames() []string {
	if fs.Single {
		return []string{fs.Field.Name}
	}
	out := make([]string, len(fs.Fields))
	for i, f := range fs.Fields {
		out[i] = f.Name
	}
	return out
}

// GroupDef declares a tab-like field group on an object type.
type GroupDef struct {
	Name    string
	Title   string
	Default bool
	Hidden  Conditional
}

// ProtoValue returns the value that materializes an empty instance of t.
func ProtoValue(t *SchemaType) any {
	switch {
	case t == nil:
		return nil
	case t.Kind == KindArray:
		return []any{}
	case t.Kind == KindObject:
		if t.Name == "" || t.Name == "object" {
			return map[string]any{}
		}
		return map[string]any{"_type": t.Name}
	}
	return nil
}

// DefaultCollapseLevel is the nesting level past which types become
// collapsible unless their options say otherwise.
const DefaultCollapseLevel = 2

// Collapse is the resolved collapse policy for a node.
type Collapse struct {
	Collapsible bool
	Collapsed   bool
}

// CollapsedWithDefaults resolves collapse options for a node at level.
func CollapsedWithDefaults(opts TypeOptions, level int) Collapse {
	if opts.Collapsible != nil && !*opts.Collapsible {
		return Collapse{}
	}
	collapsible := level > DefaultCollapseLevel
	if opts.Collapsible != nil {
		collapsible = *opts.Collapsible
	}
	collapsed := true
	if opts.Collapsed != nil {
		collapsed = *opts.Collapsed
	}
	return Collapse{Collapsible: collapsible, Collapsed: collapsible && collapsed}
}

// Bool returns a pointer to b, for option literals.
func Bool(b bool) *bool { return &b }

// JSONTypeOf names the JSON type of a decoded value ("null" for nil and
// "unknown" for values that are not JSON-like).
func JSONTypeOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return "number"
	case nil:
		return "null"
	}
	if _, ok := v.(interface{ Float64() (float64, error) }); ok {
		return "number"
	}
	return "unknown"
}
