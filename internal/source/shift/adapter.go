// Package shift adapts the shift service's notification stream.
package shift

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

// Adapter implements source.Source for the shift service.
type Adapter struct {
	client   *source.Client
	identity source.Identity
}

// NewAdapter creates a shift stream adapter.
func NewAdapter(baseURL, token string, identity source.Identity) *Adapter {
	return &Adapter{
		client:   source.NewClient(model.SourceTypeShift, baseURL, token),
		identity: identity,
	}
}

// Type returns the stream type identifier.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeShift
}

// Fetch retrieves the current shift notifications for the configured user.
func (a *Adapter) Fetch(ctx context.Context) ([]model.Notification, error) {
	body, err := a.client.Get(ctx, "/shift/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetching shift notifications: %w", err)
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

// MarkRead persists a read confirmation for one shift notification.
func (a *Adapter) MarkRead(ctx context.Context, backendID int) error {
	path := fmt.Sprintf("/shift/notifications/%d/read", backendID)
	if err := a.client.Put(ctx, path); err != nil {
		return fmt.Errorf("marking shift notification %d read: %w", backendID, err)
	}
	return nil
}

// Normalize converts one raw shift record into the canonical shape.
// Leads land on their team's schedule; everyone else on their own.
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

	actionURL := "/schedule"
	if identity.Role == model.RoleLead && detail.TeamID != "" {
		actionURL = "/team/" + detail.TeamID + "/schedule"
	}

	n := &model.Notification{
		ID:         model.BackendNotificationID(model.SourceTypeShift, rec.ID),
		SourceType: model.SourceTypeShift,
		BackendID:  rec.ID,
		Title:      rec.Title,
		Message:    rec.Message,
		Read:       rec.Read,
		CreatedAt:  source.ParseTime(rec.CreatedAt),
		ActionURL:  actionURL,
		Metadata:   map[string]string{},
	}
	if detail.AssignmentID != "" {
		n.Metadata["assignment_id"] = detail.AssignmentID
	}
	if detail.RequesterID != "" {
		n.Metadata["requester_id"] = detail.RequesterID
	}
	if detail.TeamID != "" {
		n.Metadata["team_id"] = detail.TeamID
	}
	return n
}
