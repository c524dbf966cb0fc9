package formskema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Marker codes produced by the bundled validators.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeMissingKey  = "missing_key"
	CodeUnknownType = "unknown_type"
	CodeCustom      = "custom"
)

// Level is the severity of a validation marker.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// ValidationMarker is a path-tagged validation result supplied by an
// external validation engine.
type ValidationMarker struct {
	Path    Path   `json:"path" yaml:"path"`
	Level   Level  `json:"level" yaml:"level"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (m ValidationMarker) MarkerPath() Path { return m.Path }

// ValidationMarkers is a collection of markers that implements error.
type ValidationMarkers []ValidationMarker

// Error summarizes the first few markers.
func (ms ValidationMarkers) Error() string {
	if len(ms) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(ms)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		m := ms[i]
		// e.g. error required at body
		fmt.Fprintf(b, "%s %s at %s", m.Level, m.Code, m.Path.Pointer())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// HasErrors reports whether any marker has LevelError.
func (ms ValidationMarkers) HasErrors() bool {
	for _, m := range ms {
		if m.Level == LevelError {
			return true
		}
	}
	return false
}

// AsValidationMarkers extracts markers from an error.
func AsValidationMarkers(err error) (ValidationMarkers, bool) {
	if err == nil {
		return nil, false
	}
	var ms ValidationMarkers
	if errors.As(err, &ms) {
		return ms, true
	}
	return nil, false
}

// ErrArrayItemHidden signals a schema contract violation: an array item
// resolved hidden, which would break key-based addressing of the array.
var ErrArrayItemHidden = errors.New("array items cannot be hidden")
