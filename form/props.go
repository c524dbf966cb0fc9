package form

import (
	formskema "github.com/reoring/formskema"
)

// FieldGroup is a resolved, visible field group of an object.
type FieldGroup struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Default  bool   `json:"default,omitempty"`
	Selected bool   `json:"selected"`
}

// ObjectInputProps is the projected state of an object value.
type ObjectInputProps struct {
	ID          string                       `json:"id"`
	Type        *formskema.SchemaType        `json:"-"`
	Value       map[string]any               `json:"value,omitempty"`
	Path        formskema.Path               `json:"path"`
	Level       int                          `json:"level"`
	ReadOnly    bool                         `json:"readOnly,omitempty"`
	Focused     bool                         `json:"focused,omitempty"`
	FocusPath   *formskema.Path              `json:"focusPath,omitempty"`
	Collapsed   bool                         `json:"collapsed,omitempty"`
	Collapsible bool                         `json:"collapsible,omitempty"`
	Validation  []formskema.ValidationMarker `json:"validation,omitempty"`
	Presence    []formskema.PresenceMarker   `json:"presence,omitempty"`
	Members     []ObjectMember               `json:"members"`
	Groups      []FieldGroup                 `json:"groups,omitempty"`

	OnChange           *Callback[formskema.PatchEvent] `json:"-"`
	OnFocus            *Trigger                        `json:"-"`
	OnBlur             *Trigger                        `json:"-"`
	OnSetCollapsed     *Callback[bool]                 `json:"-"`
	OnSelectFieldGroup *Callback[string]               `json:"-"`
}

// ArrayInputProps is the projected state of an array value.
type ArrayInputProps struct {
	ID          string                       `json:"id"`
	Type        *formskema.SchemaType        `json:"-"`
	Value       []any                        `json:"value,omitempty"`
	Path        formskema.Path               `json:"path"`
	Level       int                          `json:"level"`
	ReadOnly    bool                         `json:"readOnly,omitempty"`
	Focused     bool                         `json:"focused,omitempty"`
	FocusPath   *formskema.Path              `json:"focusPath,omitempty"`
	Collapsed   bool                         `json:"collapsed,omitempty"`
	Collapsible bool                         `json:"collapsible,omitempty"`
	Validation  []formskema.ValidationMarker `json:"validation,omitempty"`
	Presence    []formskema.PresenceMarker   `json:"presence,omitempty"`
	Members     []ArrayMember                `json:"members"`

	OnChange       *Callback[formskema.PatchEvent] `json:"-"`
	OnFocus        *Trigger                        `json:"-"`
	OnBlur         *Trigger                        `json:"-"`
	OnSetCollapsed *Callback[bool]                 `json:"-"`
	OnInsert       *Callback[InsertEvent]          `json:"-"`
}

// FieldProps is a field of an object, tagged by the JSON kind of its type.
// Object and Array are set for the matching kinds only.
type FieldProps struct {
	Kind        formskema.Kind               `json:"-"`
	KindName    string                       `json:"kind"`
	Name        string                       `json:"name"`
	Title       string                       `json:"title,omitempty"`
	Description string                       `json:"description,omitempty"`
	ID          string                       `json:"id"`
	Type        *formskema.SchemaType        `json:"-"`
	Index       int                          `json:"index"`
	Level       int                          `json:"level"`
	Path        formskema.Path               `json:"path"`
	Value       any                          `json:"value,omitempty"`
	ReadOnly    bool                         `json:"readOnly,omitempty"`
	Focused     bool                         `json:"focused,omitempty"`
	FocusPath   *formskema.Path              `json:"focusPath,omitempty"`
	Collapsed   bool                         `json:"collapsed,omitempty"`
	Collapsible bool                         `json:"collapsible,omitempty"`
	Validation  []formskema.ValidationMarker `json:"validation,omitempty"`
	Presence    []formskema.PresenceMarker   `json:"presence,omitempty"`

	Object *ObjectInputProps `json:"object,omitempty"`
	Array  *ArrayInputProps  `json:"array,omitempty"`

	OnChange *Callback[formskema.PatchEvent] `json:"-"`
	OnFocus  *Trigger                        `json:"-"`
	OnBlur   *Trigger                        `json:"-"`
}

// FieldSetProps is a real fieldset with at least one visible field.
type FieldSetProps struct {
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Collapsible bool           `json:"collapsible,omitempty"`
	Collapsed   bool           `json:"collapsed,omitempty"`
	Fields      []ObjectMember `json:"fields"`

	OnSetCollapsed *Callback[bool] `json:"-"`
}

// MemberType tags ObjectMember and ArrayMember.
type MemberType string

const (
	MemberField    MemberType = "field"
	MemberFieldSet MemberType = "fieldSet"
	MemberItem     MemberType = "item"
)

// ObjectMember is either a field or a fieldset.
type ObjectMember struct {
	Type     MemberType     `json:"type"`
	Key      string         `json:"key"`
	Field    *FieldProps    `json:"field,omitempty"`
	FieldSet *FieldSetProps `json:"fieldSet,omitempty"`
}

// ArrayMember is an array item.
type ArrayMember struct {
	Type MemberType        `json:"type"`
	Key  string            `json:"key"`
	Item *ObjectInputProps `json:"item"`
}

// Fields returns the field members of an object, flattening fieldsets, in
// member order.
func (o *ObjectInputProps) Fields() []*FieldProps {
	if o == nil {
		return nil
	}
	var out []*FieldProps
	for _, m := range o.Members {
		switch m.Type {
		case MemberField:
			out = append(out, m.Field)
		case MemberFieldSet:
			for _, fm := range m.FieldSet.Fields {
				out = append(out, fm.Field)
			}
		}
	}
	return out
}

// Field returns the named field member, or nil.
func (o *ObjectInputProps) Field(name string) *FieldProps {
	for _, f := range o.Fields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// SelectedGroup returns the selected group, if the object declares any.
func (o *ObjectInputProps) SelectedGroup() (FieldGroup, bool) {
	for _, g := range o.Groups {
		if g.Selected {
			return g, true
		}
	}
	return FieldGroup{}, false
}

// Item returns the array member with the given key, or nil.
func (a *ArrayInputProps) Item(key string) *ObjectInputProps {
	if a == nil {
		return nil
	}
	for _, m := range a.Members {
		if m.Key == key {
			return m.Item
		}
	}
	return nil
}
