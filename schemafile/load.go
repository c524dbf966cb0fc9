package schemafile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	formskema "github.com/reoring/formskema"
)

// Format selects the descriptor encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf infers the format from a file extension. Unknown extensions
// are treated as YAML, which also accepts JSON input.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and compiles the descriptor at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema %s", path)
	}
	reg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", path)
	}
	return reg, nil
}

// Parse decodes and compiles a descriptor.
func Parse(data []byte, format Format) (*Registry, error) {
	f, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

// Decode decodes a descriptor without compiling it.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, errors.Wrap(err, "decode json descriptor")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode yaml descriptor")
		}
	default:
		return nil, errors.Errorf("unknown descriptor format %q", format)
	}
	return &f, nil
}

// LoadDocument reads a document value (YAML or JSON object) from path.
func LoadDocument(path string) (formskema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read document %s", path)
	}
	doc, err := ParseDocument(data, FormatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "document %s", path)
	}
	return doc, nil
}

// ParseDocument decodes a document value. The root must be an object.
func ParseDocument(data []byte, format Format) (formskema.Document, error) {
	var v any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "decode json document")
		}
	default:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, errors.Wrap(err, "decode yaml document")
		}
	}
	m := yamlAnyToStringMap(v)
	if m == nil {
		return nil, errors.New("document root must be an object")
	}
	return m, nil
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively. Non-map roots
// return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	case int:
		// same representation as decoded JSON numbers
		return float64(t)
	default:
		return v
	}
}
