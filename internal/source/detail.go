package source

import (
	"encoding/json"
	"time"
)

// ParseDetail decodes a record's nested "detail" payload into out.
// Backends are inconsistent about this field: some send an object,
// others a JSON-encoded string of that object. Malformed or absent
// detail reports false and leaves out untouched, never an error.
func ParseDetail(raw json.RawMessage, out interface{}) bool {
	if len(raw) == 0 {
		return false
	}

	// Object form.
	if err := json.Unmarshal(raw, out); err == nil {
		return true
	}

	// String-wrapped form: unquote, then decode the contents.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return false
	}
	return true
}

// timeFormats are the timestamp layouts observed across the streams.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a record timestamp, trying each accepted layout.
// Unparseable values yield the zero time so they sort last.
func ParseTime(s string) time.Time {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
