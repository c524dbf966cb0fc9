package docsession

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	formskema "github.com/reoring/formskema"
)

// ErrPatchTarget is returned when a patch addresses a value that does not
// exist or has the wrong shape.
var ErrPatchTarget = errors.New("patch target not found")

// leafFunc computes the replacement of the value addressed by a patch.
// Returning remove deletes the value.
type leafFunc func(old any, exists bool) (v any, remove bool, err error)

// Apply applies ev to doc and returns the new document. doc is never
// modified; containers along the patched paths are copied and everything
// else is shared.
func Apply(doc formskema.Document, ev formskema.PatchEvent) (formskema.Document, error) {
	var cur any = map[string]any(doc)
	if doc == nil {
		cur = map[string]any{}
	}
	for i, op := range ev.Patches {
		next, err := applyOp(cur, op)
		if err != nil {
			return nil, errors.Wrapf(err, "patch %d %s", i, op)
		}
		cur = next
	}
	out, ok := cur.(map[string]any)
	if !ok {
		return nil, errors.Wrap(ErrPatchTarget, "document root must stay an object")
	}
	return out, nil
}

func applyOp(doc any, op formskema.PatchOp) (any, error) {
	switch op.Type {
	case formskema.PatchSet:
		return edit(doc, op.Path, true, func(any, bool) (any, bool, error) {
			return op.Value, false, nil
		})

	case formskema.PatchSetIfMissing:
		return edit(doc, op.Path, true, func(old any, exists bool) (any, bool, error) {
			if exists && old != nil {
				return old, false, nil
			}
			return op.Value, false, nil
		})

	case formskema.PatchUnset:
		out, err := edit(doc, op.Path, false, func(any, bool) (any, bool, error) {
			return nil, true, nil
		})
		if errors.Is(err, ErrPatchTarget) {
			// nothing to remove
			return doc, nil
		}
		return out, err

	case formskema.PatchInsert:
		return insert(doc, op)
	}
	return nil, errors.Errorf("unsupported patch type %q", op.Type)
}

func insert(doc any, op formskema.PatchOp) (any, error) {
	items := withKeys(op.Items)
	p := op.Path
	if n := len(p); n > 0 && p[n-1].IsKey() {
		ref := p[n-1].KeyValue()
		return edit(doc, p[:n-1], false, func(old any, exists bool) (any, bool, error) {
			arr, ok := old.([]any)
			if !ok {
				return nil, false, errors.Wrapf(ErrPatchTarget, "%s is not an array", p[:n-1].Pointer())
			}
			idx := indexOfKey(arr, ref)
			if idx < 0 {
				return nil, false, errors.Wrapf(ErrPatchTarget, "no item with key %q", ref)
			}
			if op.Position == formskema.After {
				idx++
			}
			return splice(arr, idx, items), false, nil
		})
	}
	return edit(doc, p, false, func(old any, exists bool) (any, bool, error) {
		arr, ok := old.([]any)
		if !ok {
			return nil, false, errors.Wrapf(ErrPatchTarget, "%s is not an array", p.Pointer())
		}
		if op.Position == formskema.After {
			return splice(arr, len(arr), items), false, nil
		}
		return splice(arr, 0, items), false, nil
	})
}

// edit copies the containers along p and replaces the addressed value with
// the result of leaf. Missing objects are created when create is set;
// missing array items are always an error.
func edit(cur any, p formskema.Path, create bool, leaf leafFunc) (any, error) {
	if len(p) == 0 {
		v, remove, err := leaf(cur, cur != nil)
		if err != nil || remove {
			return nil, err
		}
		return v, nil
	}
	seg, rest := p[0], p[1:]

	if seg.IsKey() {
		arr, ok := cur.([]any)
		if !ok {
			return nil, errors.Wrapf(ErrPatchTarget, "%s is not an array", seg)
		}
		idx := indexOfKey(arr, seg.KeyValue())
		if idx < 0 {
			return nil, errors.Wrapf(ErrPatchTarget, "no item %s", seg)
		}
		var v any
		var remove bool
		var err error
		if len(rest) == 0 {
			v, remove, err = leaf(arr[idx], true)
		} else {
			v, err = edit(arr[idx], rest, create, leaf)
		}
		if err != nil {
			return nil, err
		}
		if remove {
			out := make([]any, 0, len(arr)-1)
			out = append(out, arr[:idx]...)
			return append(out, arr[idx+1:]...), nil
		}
		out := append([]any(nil), arr...)
		out[idx] = v
		return out, nil
	}

	var m map[string]any
	switch t := cur.(type) {
	case map[string]any:
		m = t
	case nil:
		if !create {
			return nil, errors.Wrapf(ErrPatchTarget, "no object at %s", seg)
		}
	default:
		return nil, errors.Wrapf(ErrPatchTarget, "%s is not an object", seg)
	}
	name := seg.Name()
	child, exists := m[name]
	if !exists && !create {
		return nil, errors.Wrapf(ErrPatchTarget, "no field %s", seg)
	}
	var v any
	var remove bool
	var err error
	if len(rest) == 0 {
		v, remove, err = leaf(child, exists)
	} else {
		v, err = edit(child, rest, create, leaf)
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	if remove {
		delete(out, name)
	} else {
		out[name] = v
	}
	return out, nil
}

func indexOfKey(arr []any, key string) int {
	for i, item := range arr {
		if m, ok := item.(map[string]any); ok && m["_key"] == key {
			return i
		}
	}
	return -1
}

func splice(arr []any, at int, items []any) []any {
	out := make([]any, 0, len(arr)+len(items))
	out = append(out, arr[:at]...)
	out = append(out, items...)
	return append(out, arr[at:]...)
}

// withKeys gives object items without a _key a fresh one.
func withKeys(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		if k, _ := m["_key"].(string); k != "" {
			out[i] = m
			continue
		}
		cp := make(map[string]any, len(m)+1)
		for k, v := range m {
			cp[k] = v
		}
		cp["_key"] = NewKey()
		out[i] = cp
	}
	return out
}

// NewKey returns a fresh array item key.
func NewKey() string { return uuid.NewString() }
