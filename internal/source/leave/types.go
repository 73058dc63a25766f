package leave

import "encoding/json"

// Record is the raw shape of a leave notification as returned by
// GET /leave/notifications.
type Record struct {
	ID        int             `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"created_at"`
	Detail    json.RawMessage `json:"detail"`
}

// Detail is the nested payload describing the leave event.
type Detail struct {
	LeaveRequestID string `json:"leave_request_id"`
	RequesterID    string `json:"requester_id"`
	LeaveType      string `json:"leave_type"`
}
