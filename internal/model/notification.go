package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies which notification stream (or local category)
// produced a notification.
type SourceType string

const (
	SourceTypeTask   SourceType = "task"
	SourceTypeLeave  SourceType = "leave"
	SourceTypeShift  SourceType = "shift"
	SourceTypeSalary SourceType = "salary"

	// Local-only categories for notifications synthesized by the host
	// application rather than fetched from a backend stream.
	SourceTypeInfo    SourceType = "info"
	SourceTypeWarning SourceType = "warning"
	SourceTypeError   SourceType = "error"
)

// Role identifies the current user's role, used to resolve
// role-dependent navigation targets at normalization time.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleLead     Role = "lead"
	RoleHR       Role = "hr"
)

// Notification is the canonical shape every source record is normalized
// into. IDs are unique within the store at all times.
type Notification struct {
	// ID is the stable unique identifier: derived from the source type
	// and backend id for backend-origin items, or a generated UUID for
	// local-only items.
	ID string `json:"id"`

	// SourceType identifies which stream generated this notification.
	SourceType SourceType `json:"source_type"`

	// BackendID is the remote service's identifier for this notification.
	// Zero means the item is local-only and exempt from backend
	// read/dismiss calls; see BackendOrigin.
	BackendID int `json:"backend_id,omitempty"`

	// Title is the short heading shown in the inbox list.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when the notification was generated.
	CreatedAt time.Time `json:"created_at"`

	// ActionURL is the in-app navigation target, resolved per role
	// during normalization. Empty when the item has no destination.
	ActionURL string `json:"action_url,omitempty"`

	// Metadata holds source-specific key-value pairs
	// (e.g., task id, requester id, shift assignment id).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BackendOrigin reports whether this notification is tracked by a remote
// service and therefore participates in backend read/dismiss calls.
func (n Notification) BackendOrigin() bool {
	return n.BackendID != 0
}

// BackendNotificationID derives the canonical id for a backend-origin
// notification. The derivation is deterministic so refetching the same
// record always yields the same id.
func BackendNotificationID(st SourceType, backendID int) string {
	return fmt.Sprintf("%s-%d", st, backendID)
}

// LocalNotificationID generates a fresh unique id for a local-only
// notification.
func LocalNotificationID() string {
	return uuid.NewString()
}
