package form

import (
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

func (p *Projector) projectObject(raw rawProps) (*ObjectInputProps, visibility, error) {
	if raw.level >= p.maxDepth {
		return nil, hiddenBySelf, nil
	}

	cctx := raw.conditionalContext()
	cond, err := formskema.CallConditionalProperties(raw.typ, cctx, formskema.PropHidden, formskema.PropReadOnly)
	if err != nil {
		return nil, hiddenBySelf, errors.Wrapf(err, "object at %s", raw.path.Pointer())
	}
	if cond.Hidden() {
		return nil, hiddenBySelf, nil
	}

	path := raw.path
	onSelectFieldGroup := scoped(p.cache, p.root.onSetActiveFieldGroup, path, func(name string) {
		p.root.onSetActiveFieldGroup.Call(groupRequest{name: name, path: path})
	})
	onFocus := scopedTrigger(p.cache, p.root.onFocus, path, func() { p.root.onFocus.Call(path) })
	onBlur := scopedTrigger(p.cache, p.root.onBlur, path, func() { p.root.onBlur.Call(path) })
	// objects are expanded by default, so collapsing means clearing "expanded"
	onSetCollapsed := scoped(p.cache, p.root.onSetExpandedPath, path, func(collapsed bool) {
		p.root.onSetExpandedPath.Call(expandRequest{expanded: !collapsed, path: path})
	})

	groups, selected, err := resolveGroups(raw, cctx)
	if err != nil {
		return nil, hiddenBySelf, err
	}

	self := raw
	self.readOnly = raw.readOnly || cond.ReadOnly()

	var members []ObjectMember
	for i, fs := range raw.typ.Fieldsets {
		if fs.Single {
			if !fieldEnabledByGroup(groups, fs.Field, selected) {
				continue
			}
			fp, err := p.projectField(fs.Field, self, i)
			if err != nil {
				return nil, hiddenBySelf, err
			}
			if fp == nil {
				continue
			}
			members = append(members, ObjectMember{Type: MemberField, Key: "field-" + fp.Name, Field: fp})
			continue
		}
		fsp, err := p.projectFieldset(fs, self, groups, selected, i)
		if err != nil {
			return nil, hiddenBySelf, err
		}
		if fsp != nil {
			members = append(members, ObjectMember{Type: MemberFieldSet, Key: "fieldset-" + fs.Name, FieldSet: fsp})
		}
	}

	collapse := collapseState(raw.typ, raw.level, raw.expandedPaths)
	value, _ := raw.value.(map[string]any)
	props := &ObjectInputProps{
		ID:                 path.String(),
		Type:               raw.typ,
		Value:              value,
		Path:               path,
		Level:              raw.level,
		ReadOnly:           self.readOnly,
		Focused:            formskema.Equal(path, raw.focusPath),
		FocusPath:          relativeFocus(path, raw.focusPath),
		Collapsed:          collapse.Collapsed,
		Collapsible:        collapse.Collapsible,
		Validation:         raw.validation,
		Presence:           raw.presence,
		Members:            members,
		Groups:             groups,
		OnChange:           raw.onChange,
		OnFocus:            onFocus,
		OnBlur:             onBlur,
		OnSetCollapsed:     onSetCollapsed,
		OnSelectFieldGroup: onSelectFieldGroup,
	}
	// an object without a single visible member has nothing to render
	if len(members) == 0 {
		return props, hiddenByEmptyChildren, nil
	}
	return props, visible, nil
}

// resolveGroups returns the visible groups of the object and the name of
// the selected one. Selection prefers the ambient override, then the
// declared default, then the first declared group; when that group is
// hidden the first visible group takes over.
func resolveGroups(raw rawProps, cctx formskema.ConditionalContext) ([]FieldGroup, string, error) {
	defs := raw.typ.Groups
	if len(defs) == 0 {
		return nil, "", nil
	}
	want := defs[0].Name
	for _, g := range defs {
		if g.Default {
			want = g.Name
			break
		}
	}
	if v, ok := raw.fieldGroupState.Lookup(); ok && v != "" {
		want = v
	}

	groups := make([]FieldGroup, 0, len(defs))
	selected := ""
	for _, g := range defs {
		hidden, err := formskema.CallConditionalProperty(g.Hidden, cctx)
		if err != nil {
			return nil, "", errors.Wrapf(err, "hidden of group %q at %s", g.Name, raw.path.Pointer())
		}
		if hidden {
			continue
		}
		fg := FieldGroup{Name: g.Name, Title: g.Title, Default: g.Default, Selected: g.Name == want}
		if fg.Selected {
			selected = fg.Name
		}
		groups = append(groups, fg)
	}
	if selected == "" && len(groups) > 0 {
		idx := 0
		for i, g := range groups {
			if g.Default {
				idx = i
				break
			}
		}
		groups[idx].Selected = true
		selected = groups[idx].Name
	}
	return groups, selected, nil
}

// fieldEnabledByGroup reports whether f is visible under the selected
// group. Objects without (visible) groups show every field.
func fieldEnabledByGroup(groups []FieldGroup, f *formskema.ObjectField, selected string) bool {
	if len(groups) == 0 {
		return true
	}
	return f.InGroup(selected)
}

func (p *Projector) projectFieldset(fs *formskema.Fieldset, parent rawProps, groups []FieldGroup, selected string, index int) (*FieldSetProps, error) {
	hidden, err := formskema.CallConditionalProperty(fs.Hidden, formskema.ConditionalContext{
		Value:       formskema.Pick(parent.value, fs.FieldNames()),
		Parent:      parent.value,
		Document:    parent.document,
		CurrentUser: parent.user,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "hidden of fieldset %q at %s", fs.Name, parent.path.Pointer())
	}
	if hidden {
		return nil, nil
	}

	var fields []ObjectMember
	for _, f := range fs.Fields {
		if !fieldEnabledByGroup(groups, f, selected) {
			continue
		}
		fp, err := p.projectField(f, parent, index)
		if err != nil {
			return nil, err
		}
		if fp == nil {
			continue
		}
		fields = append(fields, ObjectMember{Type: MemberField, Key: "field-" + fp.Name, Field: fp})
	}
	// a fieldset whose fields are all hidden is hidden itself
	if len(fields) == 0 {
		return nil, nil
	}

	collapsed := fs.Options.Collapsed != nil && *fs.Options.Collapsed
	if v, ok := parent.expandedFieldSets.ChildNamed(fs.Name).Lookup(); ok {
		collapsed = !v
	}
	fsPath := p.interner.Concat(parent.path, formskema.Field(fs.Name))
	return &FieldSetProps{
		Name:        fs.Name,
		Title:       fs.Title,
		Collapsible: fs.Options.Collapsible != nil && *fs.Options.Collapsible,
		Collapsed:   collapsed,
		Fields:      fields,
		OnSetCollapsed: scoped(p.cache, p.root.onSetExpandedFieldSet, fsPath, func(collapsed bool) {
			p.root.onSetExpandedFieldSet.Call(expandRequest{expanded: !collapsed, path: fsPath})
		}),
	}, nil
}
