package form_test

import "github.com/reoring/formskema/form"

func memberKeys(o *form.ObjectInputProps) []string {
	keys := make([]string, 0, len(o.Members))
	for _, m := range o.Members {
		keys = append(keys, m.Key)
	}
	return keys
}
