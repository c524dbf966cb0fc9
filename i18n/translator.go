package i18n

// Translator retrieves localized messages for validation marker codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "actual" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			if data["expected"] != "" {
				return "型が不正です (期待: " + data["expected"] + ", 実際: " + data["actual"] + ")"
			}
			return "型が不正です"
		case "required":
			return "必須項目です"
		case "missing_key":
			return "配列要素に _key がありません"
		case "unknown_type":
			return "配列要素の型が不明です"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			if data["expected"] != "" {
				return "invalid type: expected " + data["expected"] + ", got " + data["actual"]
			}
			return "invalid type"
		case "required":
			return "required field missing"
		case "missing_key":
			return "array item has no _key"
		case "unknown_type":
			return "array item type is not allowed here"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
