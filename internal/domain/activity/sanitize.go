package activity

import (
	"fmt"
	"strings"
)

// complexValuePlaceholder replaces nested structures in sanitized form data.
const complexValuePlaceholder = "[complex data]"

// maxFieldLength is the longest string value persisted verbatim; longer
// values are truncated to 97 characters plus an ellipsis marker.
const maxFieldLength = 100

// sensitiveKeySubstrings is the case-insensitive deny-list applied to form
// submission field names.
var sensitiveKeySubstrings = []string{
	"password", "pass", "pwd", "secret", "credit", "card", "cvv",
	"ssn", "social", "security", "private",
}

// SanitizeSubmission redacts a raw form submission before persistence.
// Keys matching the deny-list are dropped entirely, composite values are
// replaced with a placeholder, and long strings are truncated. This rule is
// a hard contract applied identically regardless of caller.
func SanitizeSubmission(fields map[string]any) map[string]any {
	safe := make(map[string]any, len(fields))
	for key, value := range fields {
		if sensitiveKey(key) {
			continue
		}
		switch v := value.(type) {
		case map[string]any, []any:
			safe[key] = complexValuePlaceholder
		case string:
			safe[key] = truncate(v)
		case nil:
			safe[key] = ""
		case bool, float64, float32, int, int64, int32:
			safe[key] = v
		default:
			safe[key] = truncate(fmt.Sprintf("%v", v))
		}
	}
	return safe
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, substr := range sensitiveKeySubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	if len(s) > maxFieldLength {
		return s[:maxFieldLength-3] + "..."
	}
	return s
}
