package formskema

import (
	"fmt"
	"reflect"
	"strings"
)

// PatchType names a document mutation primitive.
type PatchType string

const (
	PatchSet          PatchType = "set"
	PatchSetIfMissing PatchType = "setIfMissing"
	PatchUnset        PatchType = "unset"
	PatchInsert       PatchType = "insert"
)

// InsertPosition places inserted items relative to the reference.
type InsertPosition string

const (
	Before InsertPosition = "before"
	After  InsertPosition = "after"
)

// PatchOp is one mutation targeting Path. The projector only prefixes the
// path; payload fields are opaque to it.
type PatchOp struct {
	Type     PatchType      `json:"type"`
	Path     Path           `json:"path"`
	Value    any            `json:"value,omitempty"`
	Items    []any          `json:"items,omitempty"`
	Position InsertPosition `json:"position,omitempty"`
}

// Set replaces the value at the (relative) path.
func Set(v any, segs ...Segment) PatchOp {
	return PatchOp{Type: PatchSet, Path: PathOf(segs...), Value: v}
}

// SetIfMissing sets v unless a value already exists at the path.
func SetIfMissing(v any, segs ...Segment) PatchOp {
	return PatchOp{Type: PatchSetIfMissing, Path: PathOf(segs...), Value: v}
}

// Unset removes the value at the path.
func Unset(segs ...Segment) PatchOp {
	return PatchOp{Type: PatchUnset, Path: PathOf(segs...)}
}

// Insert inserts items before or after the element addressed by path. A
// path ending at the array itself prepends (Before) or appends (After).
func Insert(items []any, pos InsertPosition, segs ...Segment) PatchOp {
	return PatchOp{Type: PatchInsert, Path: PathOf(segs...), Items: items, Position: pos}
}

func (op PatchOp) String() string {
	return fmt.Sprintf("%s(%s)", op.Type, op.Path.String())
}

// Same reports structural equality of two operations.
func (op PatchOp) Same(other PatchOp) bool {
	return op.Type == other.Type && Equal(op.Path, other.Path) && op.Position == other.Position &&
		reflect.DeepEqual(op.Value, other.Value) && reflect.DeepEqual(op.Items, other.Items)
}

// PatchEvent is an ordered batch of operations. Values are immutable: every
// method returns a new event.
type PatchEvent struct {
	Patches []PatchOp
}

// PatchEventFrom builds an event from ops.
func PatchEventFrom(ops ...PatchOp) PatchEvent {
	return PatchEvent{Patches: append([]PatchOp(nil), ops...)}
}

// Prepend returns an event with ops placed before the existing ones.
func (e PatchEvent) Prepend(ops ...PatchOp) PatchEvent {
	out := make([]PatchOp, 0, len(ops)+len(e.Patches))
	out = append(out, ops...)
	out = append(out, e.Patches...)
	return PatchEvent{Patches: out}
}

// Ensure prepends op unless the event already starts with an identical
// operation. Nested set-if-missing guards use it so a guard emitted by an
// inner wrapper is not repeated by the enclosing field.
func (e PatchEvent) Ensure(op PatchOp) PatchEvent {
	if len(e.Patches) > 0 && e.Patches[0].Same(op) {
		return e
	}
	return e.Prepend(op)
}

// Append returns an event with ops placed after the existing ones.
func (e PatchEvent) Append(ops ...PatchOp) PatchEvent {
	out := make([]PatchOp, 0, len(ops)+len(e.Patches))
	out = append(out, e.Patches...)
	out = append(out, ops...)
	return PatchEvent{Patches: out}
}

// PrefixAll returns an event with seg prepended to every operation path.
func (e PatchEvent) PrefixAll(seg Segment) PatchEvent {
	out := make([]PatchOp, len(e.Patches))
	for i, op := range e.Patches {
		op.Path = Prepend(seg, op.Path)
		out[i] = op
	}
	return PatchEvent{Patches: out}
}

// Len returns the number of operations.
func (e PatchEvent) Len() int { return len(e.Patches) }

func (e PatchEvent) String() string {
	parts := make([]string, len(e.Patches))
	for i, op := range e.Patches {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
