package formskema

import "time"

// PresenceMarker reports that a user is active at a path.
type PresenceMarker struct {
	Path         Path        `json:"path" yaml:"path"`
	User         CurrentUser `json:"user" yaml:"user"`
	SessionID    string      `json:"sessionId" yaml:"sessionId"`
	LastActiveAt time.Time   `json:"lastActiveAt" yaml:"lastActiveAt"`
}

func (m PresenceMarker) MarkerPath() Path { return m.Path }

// Marker is anything tagged with an absolute path.
type Marker interface {
	ValidationMarker | PresenceMarker
	MarkerPath() Path
}

// ScopeMarkers keeps the markers at or below p. With exact set, only
// markers at p itself survive. The input slice is never modified.
func ScopeMarkers[M Marker](ms []M, p Path, exact bool) []M {
	if len(ms) == 0 {
		return nil
	}
	out := make([]M, 0, len(ms))
	for _, m := range ms {
		mp := m.MarkerPath()
		if exact {
			if Equal(p, mp) {
				out = append(out, m)
			}
			continue
		}
		if StartsWith(p, mp) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
