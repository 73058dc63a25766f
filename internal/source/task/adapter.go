// Package task adapts the task service's notification stream.
package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

// Adapter implements source.Source for the task service.
type Adapter struct {
	client   *source.Client
	identity source.Identity
}

// NewAdapter creates a task stream adapter.
func NewAdapter(baseURL, token string, identity source.Identity) *Adapter {
	return &Adapter{
		client:   source.NewClient(model.SourceTypeTask, baseURL, token),
		identity: identity,
	}
}

// Type returns the stream type identifier.
func (a *Adapter) Type() model.SourceType {
	return model.SourceTypeTask
}

// Fetch retrieves the current task notifications for the configured user.
func (a *Adapter) Fetch(ctx context.Context) ([]model.Notification, error) {
	body, err := a.client.Get(ctx, "/tasks/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetching task notifications: %w", err)
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

// MarkRead persists a read confirmation for one task notification.
func (a *Adapter) MarkRead(ctx context.Context, backendID int) error {
	path := fmt.Sprintf("/tasks/notifications/%d/read", backendID)
	if err := a.client.Put(ctx, path); err != nil {
		return fmt.Errorf("marking task notification %d read: %w", backendID, err)
	}
	return nil
}

// Normalize converts one raw task record into the canonical shape.
// It returns nil when the record belongs to another user or, with the
// self filter enabled, when the requester is the current user.
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

	actionURL := "/tasks"
	if detail.TaskID != "" {
		actionURL = "/tasks/" + detail.TaskID
	}

	n := &model.Notification{
		ID:         model.BackendNotificationID(model.SourceTypeTask, rec.ID),
		SourceType: model.SourceTypeTask,
		BackendID:  rec.ID,
		Title:      rec.Title,
		Message:    rec.Message,
		Read:       rec.Read,
		CreatedAt:  source.ParseTime(rec.CreatedAt),
		ActionURL:  actionURL,
		Metadata:   map[string]string{},
	}
	if detail.TaskID != "" {
		n.Metadata["task_id"] = detail.TaskID
	}
	if detail.RequesterID != "" {
		n.Metadata["requester_id"] = detail.RequesterID
	}
	if detail.RequesterName != "" {
		n.Metadata["requester_name"] = detail.RequesterName
	}
	return n
}
