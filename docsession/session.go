// Package docsession is an in-memory document session: it applies the patch
// events emitted by form projections and keeps the presentation state
// (focus, expanded paths, selected groups) the projector reads back.
package docsession

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/form"
)

var now = time.Now

// Options configures a Session.
type Options struct {
	User     *formskema.CurrentUser
	Logger   logrus.FieldLogger
	MaxDepth int
	// Presence markers published by other sessions.
	Presence []formskema.PresenceMarker
}

// Session owns a document and its UI state. It is not safe for concurrent
// use.
type Session struct {
	id        string
	typ       *formskema.SchemaType
	doc       formskema.Document
	user      *formskema.CurrentUser
	state     form.AmbientState
	projector *form.Projector
	history   []formskema.PatchEvent
	err       error
	log       logrus.FieldLogger
}

// New starts a session editing doc as an instance of t.
func New(t *formskema.SchemaType, doc formskema.Document, opts Options) *Session {
	s := &Session{
		id:   uuid.NewString(),
		typ:  t,
		doc:  doc,
		user: opts.User,
		log:  opts.Logger,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("session", s.id)
	s.state.Presence = opts.Presence
	s.projector = form.NewProjector(s.Handlers(), form.Options{MaxDepth: opts.MaxDepth, Logger: s.log})
	return s
}

// ID returns the session id used in presence markers.
func (s *Session) ID() string { return s.id }

// Document returns the current document.
func (s *Session) Document() formskema.Document { return s.doc }

// State returns the current ambient state.
func (s *Session) State() form.AmbientState { return s.state }

// SetState replaces the ambient state, e.g. one restored from disk.
// Validation and presence markers are kept.
func (s *Session) SetState(st form.AmbientState) {
	st.Validation, st.Presence = s.state.Validation, s.state.Presence
	s.state = st
}

// Patches returns the applied patch events, oldest first.
func (s *Session) Patches() []formskema.PatchEvent {
	return append([]formskema.PatchEvent(nil), s.history...)
}

// Err returns the first error raised while applying a patch event. Failed
// events leave the document untouched.
func (s *Session) Err() error { return s.err }

// Handlers returns host callbacks bound to the session.
func (s *Session) Handlers() form.Handlers {
	return form.Handlers{
		OnChange: s.apply,
		OnFocus: func(p formskema.Path) {
			s.state.FocusPath = p
		},
		OnBlur: func(p formskema.Path) {
			if formskema.Equal(p, s.state.FocusPath) {
				s.state.FocusPath = nil
			}
		},
		OnSetExpandedPath: func(expanded bool, p formskema.Path) {
			s.state.ExpandedPaths = s.state.ExpandedPaths.SetAt(p, expanded)
		},
		OnSetExpandedFieldSet: func(expanded bool, p formskema.Path) {
			s.state.ExpandedFieldSets = s.state.ExpandedFieldSets.SetAt(p, expanded)
		},
		OnSetActiveFieldGroup: func(group string, p formskema.Path) {
			s.state.FieldGroupState = s.state.FieldGroupState.SetAt(p, group)
		},
	}
}

func (s *Session) apply(ev formskema.PatchEvent) {
	next, err := Apply(s.doc, ev)
	if err != nil {
		s.log.WithError(err).WithField("patches", ev.String()).Warn("rejected patch event")
		if s.err == nil {
			s.err = err
		}
		return
	}
	s.log.WithField("patches", ev.String()).Debug("applied patch event")
	s.doc = next
	s.history = append(s.history, ev)
}

// Project derives the props tree of the current document.
func (s *Session) Project() (*form.ObjectInputProps, error) {
	return s.projector.Project(s.typ, s.doc, s.state, s.user)
}

// Presence returns a marker for the session's user at its focus path.
func (s *Session) Presence() (formskema.PresenceMarker, bool) {
	if s.user == nil || s.state.FocusPath == nil {
		return formskema.PresenceMarker{}, false
	}
	return formskema.PresenceMarker{
		Path:         s.state.FocusPath,
		User:         *s.user,
		SessionID:    s.id,
		LastActiveAt: now(),
	}, true
}
