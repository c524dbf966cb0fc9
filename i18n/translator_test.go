package i18n_test

import (
	"testing"

	"github.com/reoring/formskema/i18n"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := i18n.T("required", nil); msg == "required" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	i18n.SetLanguage("ja")
	if msg := i18n.T("required", nil); msg == "required field missing" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	i18n.SetLanguage("en")
}

func TestTranslator_Data(t *testing.T) {
	msg := i18n.T("invalid_type", map[string]string{"expected": "string", "actual": "number"})
	if msg != "invalid type: expected string, got number" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := i18n.T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes should echo, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	i18n.SetTranslator(upper{})
	defer i18n.SetTranslator(nil)
	if msg := i18n.T("required", nil); msg != "X:required" {
		t.Fatalf("custom translator not used: %q", msg)
	}
}
