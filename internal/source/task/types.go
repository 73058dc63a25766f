package task

import "encoding/json"

// Record is the raw shape of a task notification as returned by
// GET /tasks/notifications.
type Record struct {
	ID        int             `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"created_at"`
	Detail    json.RawMessage `json:"detail"`
}

// Detail is the nested payload describing the task event. Backends send
// it either as an object or as a JSON-encoded string.
type Detail struct {
	TaskID        string `json:"task_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}
