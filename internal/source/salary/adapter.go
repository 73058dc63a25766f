// Package salary adapts the salary service's notification stream. It is
// the one stream that also exposes a server-side unread counter.
package salary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

// Adapter implements source.Source for the salary service.
type Adapter struct {
	client   *source.Client
	identity source.Identity
}

// NewAdapter creates a salary stream adapter.
func NewAdapter(baseURL, token string, identity source.Identity) *Adapter {
	return &Adapter{
		client:   source.NewClient(model.SourceTypeSalary, baseURL, token),
		identity: identity,
	}
}

// Type returns the stream type identifier.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeSalary
}

// Fetch retrieves the current salary notifications for the configured user.
func (a *Adapter) Fetch(ctx context.Context) ([]model.Notification, error) {
	body, err := a.client.Get(ctx, "/salary/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetching salary notifications: %w", err)
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

// MarkRead persists a read confirmation for one salary notification.
func (a *Adapter) MarkRead(ctx context.Context, backendID int) error {
	path := fmt.Sprintf("/salary/notifications/%d/read", backendID)
	if err := a.client.Put(ctx, path); err != nil {
		return fmt.Errorf("marking salary notification %d read: %w", backendID, err)
	}
	return nil
}

// UnreadCount queries the salary service's unread counter. The response
// is either a bare integer or {"count": n}.
func (a *Adapter) UnreadCount(ctx context.Context) (int, error) {
	body, err := a.client.Get(ctx, "/salary/notifications/unread/count")
	if err != nil {
		return 0, fmt.Errorf("fetching salary unread count: %w", err)
	}
	return source.DecodeCount(body), nil
}

// Normalize converts one raw salary record into the canonical shape.
// Salary events are system-generated, so no self filter applies.
func Normalize(rec Record, identity source.Identity) *model.Notification {
	if rec.UserID != identity.UserID {
		return nil
	}

	var detail Detail
	source.ParseDetail(rec.Detail, &detail)

	actionURL := "/payslips"
	if detail.PayslipID != "" {
		actionURL = "/payslips/" + detail.PayslipID
	}

	n := &model.Notification{
		ID:         model.BackendNotificationID(model.SourceTypeSalary, rec.ID),
		SourceType: model.SourceTypeSalary,
		BackendID:  rec.ID,
		Title:      rec.Title,
		Message:    rec.Message,
		Read:       rec.Read,
		CreatedAt:  source.ParseTime(rec.CreatedAt),
		ActionURL:  actionURL,
		Metadata:   map[string]string{},
	}
	if detail.PayslipID != "" {
		n.Metadata["payslip_id"] = detail.PayslipID
	}
	if detail.Period != "" {
		n.Metadata["period"] = detail.Period
	}
	return n
}
