package source

import "encoding/json"

// listEnvelope matches the wrapper-object response shapes some services
// use around their notification arrays.
type listEnvelope struct {
	Data          []json.RawMessage `json:"data"`
	Notifications []json.RawMessage `json:"notifications"`
}

// DecodeList extracts the record list from a notification response body.
// Accepted shapes: a bare JSON array, {"data":[...]}, or
// {"notifications":[...]}. Anything else decodes to an empty list;
// malformed payloads never surface as errors because a broken source
// must degrade to contributing nothing.
func DecodeList(body []byte) []json.RawMessage {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err == nil {
		return records
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Data != nil {
		return env.Data
	}
	return env.Notifications
}

// DecodeCount extracts an unread-count response body: either a bare
// integer or {"count": n}. Unrecognized shapes decode to zero.
func DecodeCount(body []byte) int {
	var n int
	if err := json.Unmarshal(body, &n); err == nil {
		return n
	}

	var env struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return 0
	}
	return env.Count
}
