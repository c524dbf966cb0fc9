package docsession

import (
	"strconv"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/form"
	"github.com/reoring/formskema/i18n"
)

// Validate checks the document against the schema and stores the markers
// in the session state, where the next projection scopes them. It reports
// missing required fields, JSON type mismatches and unaddressable array
// items.
func (s *Session) Validate() formskema.ValidationMarkers {
	ms := ValidateDocument(s.typ, s.doc)
	s.state.Validation = ms
	if len(ms) > 0 {
		s.log.WithField("markers", len(ms)).Debug("document has validation markers")
	}
	return ms
}

// ValidateDocument validates doc as an instance of t.
func ValidateDocument(t *formskema.SchemaType, doc formskema.Document) formskema.ValidationMarkers {
	v := &validator{interner: formskema.NewInterner()}
	v.object(t, map[string]any(doc), v.interner.Canonical())
	return v.out
}

type validator struct {
	interner *formskema.Interner
	out      formskema.ValidationMarkers
}

func (v *validator) add(p formskema.Path, code string, data map[string]string) {
	v.out = append(v.out, formskema.ValidationMarker{
		Path:    p,
		Level:   formskema.LevelError,
		Code:    code,
		Message: i18n.T(code, data),
	})
}

func (v *validator) object(t *formskema.SchemaType, value map[string]any, p formskema.Path) {
	for _, f := range t.Fields {
		fp := v.interner.Concat(p, formskema.Field(f.Name))
		fv, ok := value[f.Name]
		if !ok || fv == nil || fv == "" {
			if f.Required {
				v.add(fp, formskema.CodeRequired, map[string]string{"field": f.Name})
			}
			continue
		}
		v.value(f.Type, fv, fp)
	}
}

func (v *validator) value(t *formskema.SchemaType, value any, p formskema.Path) {
	actual := formskema.JSONTypeOf(value)
	if actual != t.JSONType() {
		v.add(p, formskema.CodeInvalidType, map[string]string{"expected": t.JSONType(), "actual": actual})
		return
	}
	switch t.Kind {
	case formskema.KindObject:
		v.object(t, value.(map[string]any), p)
	case formskema.KindArray:
		for i, item := range value.([]any) {
			v.item(t, item, p, i)
		}
	}
}

func (v *validator) item(arrayType *formskema.SchemaType, item any, p formskema.Path, index int) {
	itemType, ok := form.ResolveItemType(arrayType, item)
	m, isObject := item.(map[string]any)
	if !isObject {
		if !ok {
			v.add(p, formskema.CodeUnknownType, map[string]string{"index": strconv.Itoa(index)})
		}
		return
	}
	key, _ := m["_key"].(string)
	if key == "" {
		v.add(p, formskema.CodeMissingKey, map[string]string{"index": strconv.Itoa(index)})
		return
	}
	ip := v.interner.Concat(p, formskema.Key(key))
	if !ok {
		v.add(ip, formskema.CodeUnknownType, nil)
		return
	}
	v.value(itemType, item, ip)
}
