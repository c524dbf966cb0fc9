package formskema

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Segment is a single step in a Path: either a property name or a keyed
// array reference ({_key: k}). Segments are comparable with ==.
type Segment struct {
	name  string
	key   string
	keyed bool
}

// Field returns a property-name segment.
func Field(name string) Segment { return Segment{name: name} }

// Key returns a keyed array reference segment.
func Key(k string) Segment { return Segment{key: k, keyed: true} }

// IsKey reports whether the segment addresses an array item by _key.
func (s Segment) IsKey() bool { return s.keyed }

// Name returns the property name (empty for keyed segments).
func (s Segment) Name() string { return s.name }

// KeyValue returns the _key (empty for property segments).
func (s Segment) KeyValue() string { return s.key }

// Child returns the name used to look the segment up in a StateTree.
func (s Segment) Child() string {
	if s.keyed {
		return s.key
	}
	return s.name
}

// String renders a property name with '.', '[' and '\\' escaped by a
// backslash, or a keyed segment as [_key=="k"].
func (s Segment) String() string {
	if s.keyed {
		return `[_key==` + strconv.Quote(s.key) + `]`
	}
	return escapeName(s.name)
}

// Path addresses a location within a document.
type Path []Segment

// PathOf builds a Path from segments.
func PathOf(segs ...Segment) Path { return append(Path{}, segs...) }

// Equal reports whether a and b have structurally equal segments.
func Equal(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StartsWith reports whether the first len(prefix) segments of p equal prefix.
func StartsWith(prefix, p Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return Equal(prefix, p[:len(prefix)])
}

// Concat returns a fresh path with seg appended. The result never shares
// its backing array with p.
func Concat(p Path, seg Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Prepend returns a fresh path with seg in front of p.
func Prepend(seg Segment, p Path) Path {
	out := make(Path, len(p)+1)
	out[0] = seg
	copy(out[1:], p)
	return out
}

// Key encodes the path into a string that is injective over segment
// sequences. It is meant for map keys, not display.
func (p Path) Key() string {
	if len(p) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, s := range p {
		if s.keyed {
			b.WriteString("[")
			b.WriteString(escapeKey(s.key))
			b.WriteString("]")
			continue
		}
		b.WriteString(".")
		b.WriteString(escapeName(s.name))
	}
	return b.String()
}

// String renders the path as a.b[_key=="k"].c. It doubles as the node ID
// and ParsePath reverses it.
func (p Path) String() string {
	b := &strings.Builder{}
	for i, s := range p {
		if !s.keyed && i > 0 {
			b.WriteString(".")
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Pointer renders the path as a JSON Pointer; keyed segments keep the
// _key selector form.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, 0, len(p))
	for _, s := range p {
		if s.keyed {
			parts = append(parts, s.String())
			continue
		}
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		parts = append(parts, strings.ReplaceAll(strings.ReplaceAll(s.name, "~", "~0"), "/", "~1"))
	}
	return "/" + strings.Join(parts, "/")
}

// ErrInvalidPath is returned by ParsePath for malformed input.
var ErrInvalidPath = errors.New("formskema: invalid path")

// ParsePath parses the String form, e.g. `body[_key=="a1"].title`.
func ParsePath(s string) (Path, error) {
	p := Path{}
	for i := 0; i < len(s); {
		switch s[i] {
		case '.':
			i++
		case '[':
			const open = `[_key==`
			if !strings.HasPrefix(s[i:], open) {
				return nil, errors.Wrapf(ErrInvalidPath, "%q: expected %s at %d", s, open, i)
			}
			rest := s[i+len(open):]
			lit, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidPath, "%q: bad key literal at %d", s, i+len(open))
			}
			if !strings.HasPrefix(rest[len(lit):], "]") {
				return nil, errors.Wrapf(ErrInvalidPath, "%q: unterminated key selector", s)
			}
			k, _ := strconv.Unquote(lit)
			p = append(p, Key(k))
			i += len(open) + len(lit) + 1
		default:
			name := &strings.Builder{}
			for i < len(s) && s[i] != '.' && s[i] != '[' {
				if s[i] == '\\' {
					if i+1 == len(s) {
						return nil, errors.Wrapf(ErrInvalidPath, "%q: dangling escape", s)
					}
					i++
				}
				name.WriteByte(s[i])
				i++
			}
			p = append(p, Field(name.String()))
		}
	}
	return p, nil
}

func escapeName(s string) string {
	if !strings.ContainsAny(s, `\.[`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `[`, `\[`)
	return r.Replace(s)
}

func escapeKey(s string) string {
	if !strings.ContainsAny(s, `\]`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `]`, `\]`)
	return r.Replace(s)
}

// Interner hands out one canonical Path per distinct segment sequence, so
// paths coming out of a projection context can be compared by identity and
// reused as cache keys. An Interner is not safe for concurrent use.
type Interner struct {
	pool map[string]Path
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner { return &Interner{pool: map[string]Path{}} }

// Canonical returns the interned representative for segs.
func (in *Interner) Canonical(segs ...Segment) Path {
	k := Path(segs).Key()
	if p, ok := in.pool[k]; ok {
		return p
	}
	p := make(Path, len(segs))
	copy(p, segs)
	in.pool[k] = p
	return p
}

// Concat is Concat followed by Canonical.
func (in *Interner) Concat(p Path, seg Segment) Path {
	return in.Canonical(Concat(p, seg)...)
}

// Len returns the number of interned paths.
func (in *Interner) Len() int { return len(in.pool) }

// Same reports whether a and b are the same interned instance.
func Same(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

// MarshalText renders the String form so paths read naturally in JSON and
// YAML documents.
func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses the String form.
func (p *Path) UnmarshalText(b []byte) error {
	parsed, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
