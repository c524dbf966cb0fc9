package formskema

// StateTree is path-shaped UI state kept outside the document (expanded
// paths, selected field groups). A node only overrides defaults when Set is
// true; nodes created as intermediates to hold children do not.
type StateTree[T any] struct {
	Value    T                        `json:"value,omitempty" yaml:"value,omitempty"`
	Set      bool                     `json:"set,omitempty" yaml:"set,omitempty"`
	Children map[string]*StateTree[T] `json:"children,omitempty" yaml:"children,omitempty"`
}

// Child returns the subtree for seg, or nil. It is nil-safe.
func (t *StateTree[T]) Child(seg Segment) *StateTree[T] {
	return t.ChildNamed(seg.Child())
}

// ChildNamed returns the subtree stored under name, or nil.
func (t *StateTree[T]) ChildNamed(name string) *StateTree[T] {
	if t == nil || t.Children == nil {
		return nil
	}
	return t.Children[name]
}

// Lookup returns the value at t when it was explicitly set.
func (t *StateTree[T]) Lookup() (T, bool) {
	if t == nil || !t.Set {
		var zero T
		return zero, false
	}
	return t.Value, true
}

// At walks p and returns the subtree, or nil.
func (t *StateTree[T]) At(p Path) *StateTree[T] {
	cur := t
	for _, seg := range p {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// SetAt returns a copy of t with v stored at p. Nodes along p are copied;
// untouched subtrees are shared with t.
func (t *StateTree[T]) SetAt(p Path, v T) *StateTree[T] {
	var next StateTree[T]
	if t != nil {
		next = *t
	}
	if len(p) == 0 {
		next.Value = v
		next.Set = true
		return &next
	}
	children := make(map[string]*StateTree[T], len(next.Children)+1)
	for k, c := range next.Children {
		children[k] = c
	}
	name := p[0].Child()
	children[name] = children[name].SetAt(p[1:], v)
	next.Children = children
	return &next
}
