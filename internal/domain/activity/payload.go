package activity

// PayloadVersion is the current version of the payload document format.
const PayloadVersion = 1

// Recognized payload keys per activity kind. Consumers must tolerate
// unknown or absent keys.
const (
	KeyPageID     = "page_id"
	KeyFormID     = "form_id"
	KeySubmission = "submission_summary"
	KeyScore      = "score"
	KeyPercentage = "percentage"
	KeyPassed     = "passed"
)

// Payload is the structured, versioned key/value document persisted with an
// activity.
type Payload struct {
	Version int            `json:"version"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NewPayload wraps a field map in a versioned payload document.
func NewPayload(fields map[string]any) Payload {
	return Payload{Version: PayloadVersion, Fields: fields}
}

// String returns the string value for a key, if present.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns the numeric value for a key, if present. Values decoded
// from JSON arrive as float64; values set in process may be any integer or
// float type.
func (p Payload) Number(key string) (float64, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns the boolean value for a key, if present.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
