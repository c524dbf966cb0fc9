package form

import (
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

// projectField prepares the props of field f within the object described
// by parent. A nil result means the field is hidden.
func (p *Projector) projectField(f *formskema.ObjectField, parent rawProps, index int) (*FieldProps, error) {
	seg := formskema.Field(f.Name)
	ft := f.EffectiveType()
	value := lookupField(parent.value, f.Name)
	raw := parent.child(p, seg, ft, value)
	fieldPath := raw.path

	parentOnChange := parent.onChange
	onChange := scoped(p.cache, parentOnChange, fieldPath, func(ev formskema.PatchEvent) {
		// materialize the container first so edits below it never no-op
		if ft.IsObject() || ft.IsArray() {
			ev = ev.Ensure(formskema.SetIfMissing(formskema.ProtoValue(ft)))
		}
		parentOnChange.Call(ev.PrefixAll(seg))
	})
	onFocus := scopedTrigger(p.cache, p.root.onFocus, fieldPath, func() { p.root.onFocus.Call(fieldPath) })
	onBlur := scopedTrigger(p.cache, p.root.onBlur, fieldPath, func() { p.root.onBlur.Call(fieldPath) })

	raw.presence = formskema.ScopeMarkers(parent.presence, fieldPath, false)
	raw.validation = formskema.ScopeMarkers(parent.validation, fieldPath, false)
	raw.onChange = onChange

	fp := &FieldProps{
		Kind:        ft.Kind,
		KindName:    ft.JSONType(),
		Name:        f.Name,
		Title:       ft.Title,
		Description: ft.Description,
		ID:          fieldPath.String(),
		Type:        ft,
		Index:       index,
		Level:       raw.level,
		Path:        fieldPath,
		Value:       value,
		Focused:     formskema.Equal(fieldPath, parent.focusPath),
		FocusPath:   relativeFocus(fieldPath, parent.focusPath),
		OnChange:    onChange,
		OnFocus:     onFocus,
		OnBlur:      onBlur,
	}

	switch ft.Kind {
	case formskema.KindObject:
		obj, vis, err := p.projectObject(raw)
		if err != nil {
			return nil, err
		}
		if vis != visible {
			return nil, nil
		}
		fp.Object = obj
		fp.ReadOnly = obj.ReadOnly
		fp.Collapsible = obj.Collapsible
		fp.Collapsed = obj.Collapsed
		fp.Presence, fp.Validation = narrowMarkers(raw, fieldPath, obj.Collapsed)
		return fp, nil

	case formskema.KindArray:
		arr, vis, err := p.projectArray(raw)
		if err != nil {
			return nil, err
		}
		if vis != visible {
			return nil, nil
		}
		fp.Array = arr
		fp.ReadOnly = arr.ReadOnly
		fp.Collapsible = arr.Collapsible
		fp.Collapsed = arr.Collapsed
		fp.Presence, fp.Validation = narrowMarkers(raw, fieldPath, arr.Collapsed)
		return fp, nil
	}

	cond, err := formskema.CallConditionalProperties(ft, raw.conditionalContext(), formskema.PropHidden, formskema.PropReadOnly)
	if err != nil {
		return nil, errors.Wrapf(err, "field at %s", fieldPath.Pointer())
	}
	if cond.Hidden() {
		return nil, nil
	}
	fp.ReadOnly = parent.readOnly || cond.ReadOnly()
	fp.Presence = formskema.ScopeMarkers(raw.presence, fieldPath, true)
	fp.Validation = formskema.ScopeMarkers(raw.validation, fieldPath, true)
	return fp, nil
}

// narrowMarkers returns the markers a container field shows itself. While
// collapsed only markers at the field's own path surface; expanded fields
// carry their whole subtree.
func narrowMarkers(raw rawProps, fieldPath formskema.Path, collapsed bool) ([]formskema.PresenceMarker, []formskema.ValidationMarker) {
	return formskema.ScopeMarkers(raw.presence, fieldPath, collapsed),
		formskema.ScopeMarkers(raw.validation, fieldPath, collapsed)
}
