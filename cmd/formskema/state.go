package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/form"
)

// stateFile is the on-disk form of the ambient UI state. Map keys are
// paths in their String form; the empty key addresses the root.
type stateFile struct {
	Focus     string                     `yaml:"focus"`
	Groups    map[string]string          `yaml:"groups"`
	Expanded  map[string]bool            `yaml:"expanded"`
	Fieldsets map[string]bool            `yaml:"fieldsets"`
	Presence  []formskema.PresenceMarker `yaml:"presence"`
}

func loadState(path string) (stateFile, error) {
	var sf stateFile
	if path == "" {
		return sf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, errors.Wrapf(err, "read state %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return sf, errors.Wrapf(err, "decode state %s", path)
	}
	return sf, nil
}

func (sf stateFile) ambient() (form.AmbientState, error) {
	var st form.AmbientState
	if sf.Focus != "" {
		p, err := formskema.ParsePath(sf.Focus)
		if err != nil {
			return st, errors.Wrap(err, "focus")
		}
		st.FocusPath = p
	}
	for k, g := range sf.Groups {
		p, err := formskema.ParsePath(k)
		if err != nil {
			return st, errors.Wrap(err, "groups")
		}
		st.FieldGroupState = st.FieldGroupState.SetAt(p, g)
	}
	for k, v := range sf.Expanded {
		p, err := formskema.ParsePath(k)
		if err != nil {
			return st, errors.Wrap(err, "expanded")
		}
		st.ExpandedPaths = st.ExpandedPaths.SetAt(p, v)
	}
	for k, v := range sf.Fieldsets {
		p, err := formskema.ParsePath(k)
		if err != nil {
			return st, errors.Wrap(err, "fieldsets")
		}
		st.ExpandedFieldSets = st.ExpandedFieldSets.SetAt(p, v)
	}
	return st, nil
}
