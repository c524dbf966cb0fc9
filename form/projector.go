// Package form projects a schema type and a document value into a tree of
// field props: visibility, read-only flags, groups, fieldsets, collapse
// state, scoped markers and memoized callbacks.
package form

import (
	"github.com/sirupsen/logrus"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/internal/memo"
)

// DefaultMaxDepth bounds the nesting level of a projection. Nodes at this
// level are treated as hidden, which keeps recursive schemas finite.
const DefaultMaxDepth = 20

// Options configures a Projector.
type Options struct {
	// MaxDepth is the nesting level at which recursion stops (0 selects
	// DefaultMaxDepth).
	MaxDepth int
	// Logger receives diagnostics about skipped nodes. Defaults to the
	// logrus standard logger.
	Logger logrus.FieldLogger
}

// AmbientState is the UI state persisted outside the document, plus the
// markers supplied by the validation engine and the presence channel.
type AmbientState struct {
	FocusPath         formskema.Path
	FieldGroupState   *formskema.StateTree[string]
	ExpandedPaths     *formskema.StateTree[bool]
	ExpandedFieldSets *formskema.StateTree[bool]
	Validation        []formskema.ValidationMarker
	Presence          []formskema.PresenceMarker
}

// Projector derives props trees. Callbacks in the output keep their
// identity across consecutive Project calls as long as the Handlers are not
// replaced and the node stays in the tree; callbacks of nodes missing from
// a pass are released.
// A Projector is not safe for concurrent use; run parallel projections on
// separate Projectors.
type Projector struct {
	cache    *memo.Cache
	interner *formskema.Interner
	root     rootCallbacks
	maxDepth int
	log      logrus.FieldLogger
}

// NewProjector returns a Projector notifying h.
func NewProjector(h Handlers, opts Options) *Projector {
	p := &Projector{
		cache:    memo.New(),
		interner: formskema.NewInterner(),
		maxDepth: opts.MaxDepth,
		log:      opts.Logger,
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	p.root = newRootCallbacks(p.cache, h)
	return p
}

// SetHandlers replaces the host callbacks. Every callback derived from the
// previous handlers is evicted, so the next projection hands out new
// callback instances.
func (p *Projector) SetHandlers(h Handlers) {
	for _, handle := range p.root.handles() {
		p.cache.Evict(handle)
	}
	p.root = newRootCallbacks(p.cache, h)
}

// CachedCallbacks returns the number of memoized callbacks.
func (p *Projector) CachedCallbacks() int { return p.cache.Len() }

// Project derives the props tree for doc as an instance of t. A nil result
// with a nil error means the document root resolved hidden.
//
// Errors come from conditional rules and from array items that resolve
// hidden (formskema.ErrArrayItemHidden); both abort the pass.
func (p *Projector) Project(t *formskema.SchemaType, doc formskema.Document, state AmbientState, user *formskema.CurrentUser) (*ObjectInputProps, error) {
	p.cache.Begin()
	p.interner = formskema.NewInterner()
	raw := rawProps{
		typ:               t,
		value:             doc,
		document:          doc,
		user:              user,
		presence:          state.Presence,
		validation:        state.Validation,
		path:              p.interner.Canonical(),
		focusPath:         state.FocusPath,
		fieldGroupState:   state.FieldGroupState,
		expandedPaths:     state.ExpandedPaths,
		expandedFieldSets: state.ExpandedFieldSets,
		onChange:          p.root.onChange,
	}
	obj, vis, err := p.projectObject(raw)
	if err != nil {
		return nil, err
	}
	// callbacks of nodes that left the tree (removed items, filtered
	// fields) are dropped; a failed pass keeps everything
	if n := p.cache.Sweep(); n > 0 {
		p.log.WithField("callbacks", n).Debug("evicted stale callbacks")
	}
	if vis != visible {
		return nil, nil
	}
	return obj, nil
}

type visibility uint8

const (
	visible visibility = iota
	hiddenBySelf
	hiddenByEmptyChildren
)

// rawProps is the input of one recursion step.
type rawProps struct {
	typ        *formskema.SchemaType
	value      any
	parent     any
	document   formskema.Document
	user       *formskema.CurrentUser
	presence   []formskema.PresenceMarker
	validation []formskema.ValidationMarker
	// readOnly is inherited from the enclosing nodes.
	readOnly  bool
	path      formskema.Path
	focusPath formskema.Path
	level     int

	fieldGroupState   *formskema.StateTree[string]
	expandedPaths     *formskema.StateTree[bool]
	expandedFieldSets *formskema.StateTree[bool]

	onChange *Callback[formskema.PatchEvent]
}

func (r rawProps) conditionalContext() formskema.ConditionalContext {
	return formskema.ConditionalContext{
		Value:       r.value,
		Parent:      r.parent,
		Document:    r.document,
		CurrentUser: r.user,
	}
}

// child derives the raw props of a nested node at seg.
func (r rawProps) child(p *Projector, seg formskema.Segment, typ *formskema.SchemaType, value any) rawProps {
	return rawProps{
		typ:               typ,
		value:             value,
		parent:            r.value,
		document:          r.document,
		user:              r.user,
		presence:          r.presence,
		validation:        r.validation,
		readOnly:          r.readOnly,
		path:              p.interner.Concat(r.path, seg),
		focusPath:         r.focusPath,
		level:             r.level + 1,
		fieldGroupState:   r.fieldGroupState.Child(seg),
		expandedPaths:     r.expandedPaths.Child(seg),
		expandedFieldSets: r.expandedFieldSets.Child(seg),
		onChange:          r.onChange,
	}
}

// relativeFocus returns the focus path below path, or nil when the focus
// is elsewhere.
func relativeFocus(path, focus formskema.Path) *formskema.Path {
	if len(focus) <= len(path) || !formskema.StartsWith(path, focus) {
		return nil
	}
	rel := append(formskema.Path{}, focus[len(path):]...)
	return &rel
}

func collapseState(t *formskema.SchemaType, level int, expanded *formskema.StateTree[bool]) formskema.Collapse {
	c := formskema.CollapsedWithDefaults(t.Options, level)
	if v, ok := expanded.Lookup(); ok {
		c.Collapsed = !v
	}
	return c
}

func lookupField(v any, name string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}
