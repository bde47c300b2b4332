package validator

import (
	"strings"
)

// Only presence is checked; format validation is left to clients.

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MissingField returns the name of the first blank field in order, or "".
func MissingField(names []string, values map[string]string) string {
	for _, name := range names {
		if !ValidateRequired(values[name]) {
			return name
		}
	}
	return ""
}
