package shift

import "encoding/json"

// Record is the raw shape of a shift notification as returned by
// GET /shift/notifications.
type Record struct {
	ID        int             `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"created_at"`
	Detail    json.RawMessage `json:"detail"`
}

// Detail is the nested payload describing the shift event.
type Detail struct {
	AssignmentID string `json:"assignment_id"`
	RequesterID  string `json:"requester_id"`
	TeamID       string `json:"team_id"`
}
