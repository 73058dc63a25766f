// Package leave adapts the leave service's notification stream.
package leave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

// Adapter implements source.Source for the leave service.
type Adapter struct {
	client   *source.Client
	identity source.Identity
}

// NewAdapter creates a leave stream adapter.
func NewAdapter(baseURL, token string, identity source.Identity) *Adapter {
	return &Adapter{
		client:   source.NewClient(model.SourceTypeLeave, baseURL, token),
		identity: identity,
	}
}

// Type returns the stream type identifier.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeLeave
}

// Fetch retrieves the current leave notifications for the configured user.
func (a *Adapter) Fetch(ctx context.Context) ([]model.Notification, error) {
	body, err := a.client.Get(ctx, "/leave/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetching leave notifications: %w", err)
	}

	records := source.DecodeList(body)
	out := make([]model.Notification, 0, len(records))
	for _, raw := range records {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if n := Normalize(rec, a.identity); n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

// MarkRead persists a read confirmation for one leave notification.
func (a *Adapter) MarkRead(ctx context.Context, backendID int) error {
	path := fmt.Sprintf("/leave/notifications/%d/read", backendID)
	if err := a.client.Put(ctx, path); err != nil {
		return fmt.Errorf("marking leave notification %d read: %w", backendID, err)
	}
	return nil
}

// Normalize converts one raw leave record into the canonical shape.
// Approvers (leads, HR) are routed to the approvals view; employees to
// their own request.
func Normalize(rec Record, identity source.Identity) *model.Notification {
	if rec.UserID != identity.UserID {
		return nil
	}

	var detail Detail
	source.ParseDetail(rec.Detail, &detail)

	if identity.FilterSelf && detail.RequesterID != "" &&
		detail.RequesterID == identity.UserID {
		return nil
	}

	actionURL := "/leave/requests"
	if detail.LeaveRequestID != "" {
		switch identity.Role {
		case model.RoleLead, model.RoleHR:
			actionURL = "/leave/approvals/" + detail.LeaveRequestID
		default:
			actionURL = "/leave/requests/" + detail.LeaveRequestID
		}
	}

	n := &model.Notification{
		ID:         model.BackendNotificationID(model.SourceTypeLeave, rec.ID),
		SourceType: model.SourceTypeLeave,
		BackendID:  rec.ID,
		Title:      rec.Title,
		Message:    rec.Message,
		Read:       rec.Read,
		CreatedAt:  source.ParseTime(rec.CreatedAt),
		ActionURL:  actionURL,
		Metadata:   map[string]string{},
	}
	if detail.LeaveRequestID != "" {
		n.Metadata["leave_request_id"] = detail.LeaveRequestID
	}
	if detail.RequesterID != "" {
		n.Metadata["requester_id"] = detail.RequesterID
	}
	if detail.LeaveType != "" {
		n.Metadata["leave_type"] = detail.LeaveType
	}
	return n
}
