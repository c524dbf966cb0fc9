package form

import (
	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/internal/memo"
)

// Callback is a single-argument callback with a stable identity. Two props
// trees can be compared callback-by-callback with ==.
type Callback[A any] struct {
	handle memo.Handle
	fn     func(A)
}

// Call invokes the callback. A nil callback is a no-op.
func (c *Callback[A]) Call(a A) {
	if c == nil || c.fn == nil {
		return
	}
	c.fn(a)
}

// Handle returns the identity token.
func (c *Callback[A]) Handle() memo.Handle { return c.handle }

// Trigger is a no-argument callback with a stable identity.
type Trigger struct {
	handle memo.Handle
	fn     func()
}

// Fire invokes the trigger. A nil trigger is a no-op.
func (t *Trigger) Fire() {
	if t == nil || t.fn == nil {
		return
	}
	t.fn()
}

// Handle returns the identity token.
func (t *Trigger) Handle() memo.Handle { return t.handle }

// InsertEvent asks an array to insert items next to Reference. A zero
// Reference prepends (Before) or appends (After).
type InsertEvent struct {
	Items     []any
	Position  formskema.InsertPosition
	Reference formskema.Segment
	// HasReference is false for prepend/append at the array itself.
	HasReference bool
}

type expandRequest struct {
	expanded bool
	path     formskema.Path
}

type groupRequest struct {
	name string
	path formskema.Path
}

// Handlers are the host callbacks a projection notifies. Nil members are
// treated as no-ops.
type Handlers struct {
	OnChange              func(formskema.PatchEvent)
	OnFocus               func(formskema.Path)
	OnBlur                func(formskema.Path)
	OnSetExpandedPath     func(expanded bool, p formskema.Path)
	OnSetExpandedFieldSet func(expanded bool, p formskema.Path)
	OnSetActiveFieldGroup func(group string, p formskema.Path)
}

// rootCallbacks are the Handlers wrapped into identity-carrying callbacks.
type rootCallbacks struct {
	onChange              *Callback[formskema.PatchEvent]
	onFocus               *Callback[formskema.Path]
	onBlur                *Callback[formskema.Path]
	onSetExpandedPath     *Callback[expandRequest]
	onSetExpandedFieldSet *Callback[expandRequest]
	onSetActiveFieldGroup *Callback[groupRequest]
}

func newRootCallbacks(c *memo.Cache, h Handlers) rootCallbacks {
	return rootCallbacks{
		onChange: &Callback[formskema.PatchEvent]{handle: c.NewHandle(), fn: func(ev formskema.PatchEvent) {
			if h.OnChange != nil {
				h.OnChange(ev)
			}
		}},
		onFocus: &Callback[formskema.Path]{handle: c.NewHandle(), fn: func(p formskema.Path) {
			if h.OnFocus != nil {
				h.OnFocus(p)
			}
		}},
		onBlur: &Callback[formskema.Path]{handle: c.NewHandle(), fn: func(p formskema.Path) {
			if h.OnBlur != nil {
				h.OnBlur(p)
			}
		}},
		onSetExpandedPath: &Callback[expandRequest]{handle: c.NewHandle(), fn: func(r expandRequest) {
			if h.OnSetExpandedPath != nil {
				h.OnSetExpandedPath(r.expanded, r.path)
			}
		}},
		onSetExpandedFieldSet: &Callback[expandRequest]{handle: c.NewHandle(), fn: func(r expandRequest) {
			if h.OnSetExpandedFieldSet != nil {
				h.OnSetExpandedFieldSet(r.expanded, r.path)
			}
		}},
		onSetActiveFieldGroup: &Callback[groupRequest]{handle: c.NewHandle(), fn: func(r groupRequest) {
			if h.OnSetActiveFieldGroup != nil {
				h.OnSetActiveFieldGroup(r.name, r.path)
			}
		}},
	}
}

func (r rootCallbacks) handles() []memo.Handle {
	return []memo.Handle{
		r.onChange.handle, r.onFocus.handle, r.onBlur.handle,
		r.onSetExpandedPath.handle, r.onSetExpandedFieldSet.handle, r.onSetActiveFieldGroup.handle,
	}
}

// scoped returns the callback memoized under (owner, key), building it with
// fn on first use.
func scoped[A any](c *memo.Cache, owner memo.Owner, key formskema.Path, fn func(A)) *Callback[A] {
	return memo.Get(c, owner.Handle(), key.Key(), func(h memo.Handle) *Callback[A] {
		return &Callback[A]{handle: h, fn: fn}
	})
}

// scopedTrigger is scoped for no-argument callbacks.
func scopedTrigger(c *memo.Cache, owner memo.Owner, key formskema.Path, fn func()) *Trigger {
	return memo.Get(c, owner.Handle(), key.Key(), func(h memo.Handle) *Trigger {
		return &Trigger{handle: h, fn: fn}
	})
}
