package form

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	formskema "github.com/reoring/formskema"
)

var insertSegment = formskema.Field("@@insert")

func (p *Projector) projectArray(raw rawProps) (*ArrayInputProps, visibility, error) {
	// items sit one level below the array; stop here rather than letting
	// them hit the depth guard, which would read as a hidden item
	if raw.level+1 >= p.maxDepth {
		return nil, hiddenBySelf, nil
	}

	cond, err := formskema.CallConditionalProperties(raw.typ, raw.conditionalContext(), formskema.PropHidden, formskema.PropReadOnly)
	if err != nil {
		return nil, hiddenBySelf, errors.Wrapf(err, "array at %s", raw.path.Pointer())
	}
	if cond.Hidden() {
		return nil, hiddenBySelf, nil
	}

	path := raw.path
	outer := raw.onChange
	onChange := scoped(p.cache, outer, path, func(ev formskema.PatchEvent) {
		outer.Call(ev.Ensure(formskema.SetIfMissing([]any{})))
	})
	onInsert := scoped(p.cache, onChange, p.interner.Concat(path, insertSegment), func(ev InsertEvent) {
		var ref []formskema.Segment
		if ev.HasReference {
			ref = append(ref, ev.Reference)
		}
		onChange.Call(formskema.PatchEventFrom(formskema.Insert(ev.Items, ev.Position, ref...)))
	})
	onFocus := scopedTrigger(p.cache, p.root.onFocus, path, func() { p.root.onFocus.Call(path) })
	onBlur := scopedTrigger(p.cache, p.root.onBlur, path, func() { p.root.onBlur.Call(path) })
	onSetCollapsed := scoped(p.cache, p.root.onSetExpandedPath, path, func(collapsed bool) {
		p.root.onSetExpandedPath.Call(expandRequest{expanded: !collapsed, path: path})
	})

	self := raw
	self.readOnly = raw.readOnly || cond.ReadOnly()
	self.onChange = onChange

	items, _ := raw.value.([]any)
	members := make([]ArrayMember, 0, len(items))
	for i, item := range items {
		m, err := p.projectArrayItem(self, item, i)
		if err != nil {
			return nil, hiddenBySelf, err
		}
		if m != nil {
			members = append(members, *m)
		}
	}

	collapse := collapseState(raw.typ, raw.level, raw.expandedPaths)
	return &ArrayInputProps{
		ID:             path.String(),
		Type:           raw.typ,
		Value:          items,
		Path:           path,
		Level:          raw.level,
		ReadOnly:       self.readOnly,
		Focused:        formskema.Equal(path, raw.focusPath),
		FocusPath:      relativeFocus(path, raw.focusPath),
		Collapsed:      collapse.Collapsed,
		Collapsible:    collapse.Collapsible,
		Validation:     raw.validation,
		Presence:       raw.presence,
		Members:        members,
		OnChange:       onChange,
		OnFocus:        onFocus,
		OnBlur:         onBlur,
		OnSetCollapsed: onSetCollapsed,
		OnInsert:       onInsert,
	}, visible, nil
}

// projectArrayItem projects one element of the array described by parent.
// Items that cannot be addressed or have no object type are skipped.
func (p *Projector) projectArrayItem(parent rawProps, item any, index int) (*ArrayMember, error) {
	log := p.log.WithFields(logrus.Fields{"path": parent.path.String(), "index": index})

	itemType, ok := ResolveItemType(parent.typ, item)
	if !ok {
		log.Debug("skipping array item: no matching member type")
		return nil, nil
	}
	if !itemType.IsObject() {
		log.WithField("type", itemType.Name).Debug("skipping array item: primitive items are not projected")
		return nil, nil
	}
	key, _ := lookupField(item, "_key").(string)
	if key == "" {
		log.Debug("skipping array item: missing _key")
		return nil, nil
	}

	seg := formskema.Key(key)
	raw := parent.child(p, seg, itemType, item)
	itemPath := raw.path

	arrayOnChange := parent.onChange
	raw.onChange = scoped(p.cache, arrayOnChange, itemPath, func(ev formskema.PatchEvent) {
		ev = ev.Ensure(formskema.SetIfMissing(formskema.ProtoValue(itemType)))
		arrayOnChange.Call(ev.PrefixAll(seg))
	})
	raw.presence = formskema.ScopeMarkers(parent.presence, itemPath, false)
	raw.validation = formskema.ScopeMarkers(parent.validation, itemPath, false)

	obj, vis, err := p.projectObject(raw)
	if err != nil {
		return nil, err
	}
	if vis == hiddenBySelf {
		return nil, errors.Wrapf(formskema.ErrArrayItemHidden, "item %s of type %q", itemPath.String(), itemType.Name)
	}
	return &ArrayMember{Type: MemberItem, Key: key, Item: obj}, nil
}

// ResolveItemType finds the member type of arrayType that describes item.
// Objects dispatch on their _type discriminator; untyped objects match a
// lone member type; primitives match by JSON type.
func ResolveItemType(arrayType *formskema.SchemaType, item any) (*formskema.SchemaType, bool) {
	if arrayType == nil || len(arrayType.Of) == 0 {
		return nil, false
	}
	name := formskema.JSONTypeOf(item)
	if m, ok := item.(map[string]any); ok {
		if t, ok := m["_type"].(string); ok && t != "" {
			name = t
		}
	}
	if name == "object" && len(arrayType.Of) == 1 && arrayType.Of[0].IsObject() {
		return arrayType.Of[0], true
	}
	for _, t := range arrayType.Of {
		if t.Name == name {
			return t, true
		}
	}
	for _, t := range arrayType.Of {
		if t.Kind.IsPrimitive() && t.JSONType() == name {
			return t, true
		}
	}
	return nil, false
}
