package form

import (
	formskema "github.com/reoring/formskema"
)

// Node is a location in a projected tree. Field is set when the path ends
// at an object field; Object or Array carry the nested props, if any.
type Node struct {
	Field  *FieldProps
	Object *ObjectInputProps
	Array  *ArrayInputProps
}

// OnChange returns the change callback that addresses the node.
func (n Node) OnChange() *Callback[formskema.PatchEvent] {
	switch {
	case n.Field != nil:
		return n.Field.OnChange
	case n.Object != nil:
		return n.Object.OnChange
	case n.Array != nil:
		return n.Array.OnChange
	}
	return nil
}

// Find walks root along p. It reports false when a segment does not match a
// visible member.
func Find(root *ObjectInputProps, p formskema.Path) (Node, bool) {
	cur := Node{Object: root}
	for _, seg := range p {
		switch {
		case !seg.IsKey() && cur.Object != nil:
			f := cur.Object.Field(seg.Name())
			if f == nil {
				return Node{}, false
			}
			cur = Node{Field: f, Object: f.Object, Array: f.Array}
		case seg.IsKey() && cur.Array != nil:
			item := cur.Array.Item(seg.KeyValue())
			if item == nil {
				return Node{}, false
			}
			cur = Node{Object: item}
		default:
			return Node{}, false
		}
	}
	if cur.Field == nil && cur.Object == nil && cur.Array == nil {
		return Node{}, false
	}
	return cur, true
}
