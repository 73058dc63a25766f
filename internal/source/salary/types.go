package salary

import "encoding/json"

// Record is the raw shape of a salary notification as returned by
// GET /salary/notifications.
type Record struct {
	ID        int             `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	CreatedAt string          `json:"created_at"`
	Detail    json.RawMessage `json:"detail"`
}

// Detail is the nested payload describing the salary event.
type Detail struct {
	PayslipID string `json:"payslip_id"`
	Period    string `json:"period"`
}
