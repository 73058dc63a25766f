package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

// MarkRead flags one notification as read. The flip is optimistic: it
// happens immediately, the backend PUT follows, and a failed PUT rolls
// the flag back before the error is returned. Unknown ids are a no-op.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	n := e.notifications[idx]
	if n.Read {
		e.mu.Unlock()
		return nil
	}
	e.notifications[idx].Read = true
	e.mu.Unlock()

	if !n.BackendOrigin() {
		return e.persistLocal(ctx)
	}

	src, ok := e.bySource[n.SourceType]
	if !ok {
		return fmt.Errorf("no source registered for %s", n.SourceType)
	}

	if err := src.MarkRead(ctx, n.BackendID); err != nil {
		e.mu.Lock()
		if i := e.indexOf(id); i >= 0 {
			e.notifications[i].Read = false
		}
		e.mu.Unlock()

		if source.IsAuthError(err) {
			e.gate.Invalidate()
		}
		return err
	}

	// The item is retained so the UI can render its read transition;
	// the next reconcile owns its fate.
	return nil
}

// MarkAllRead flips every unread notification to read, then confirms
// the backend-origin ones per source. Any backend failure reverts the
// whole batch and triggers a fresh refresh so the store converges on
// backend truth.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	e.mu.Lock()
	var flipped []string
	type pending struct {
		sourceType model.SourceType
		backendID  int
	}
	var puts []pending
	for i, n := range e.notifications {
		if n.Read {
			continue
		}
		e.notifications[i].Read = true
		flipped = append(flipped, n.ID)
		if n.BackendOrigin() {
			puts = append(puts, pending{n.SourceType, n.BackendID})
		}
	}
	e.mu.Unlock()

	if len(flipped) == 0 {
		return nil
	}

	var errs []error
	for _, p := range puts {
		src, ok := e.bySource[p.sourceType]
		if !ok {
			errs = append(errs, fmt.Errorf("no source registered for %s", p.sourceType))
			continue
		}
		if err := src.MarkRead(ctx, p.backendID); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		// All-or-nothing: revert every flipped item.
		e.mu.Lock()
		for _, id := range flipped {
			if i := e.indexOf(id); i >= 0 {
				e.notifications[i].Read = false
			}
		}
		e.mu.Unlock()

		err := errors.Join(errs...)
		if source.IsAuthError(err) {
			e.gate.Invalidate()
			return err
		}

		e.log.Warn("mark-all-read failed, reverting", zap.Error(err))
		go func() { _ = e.refresh(false, true) }()
		return err
	}

	return e.persistLocal(ctx)
}

// Dismiss permanently removes a notification. Backend-origin items get
// a read confirmation first (dismissal implies read) and their id is
// recorded in the dismissal ledger so no resync resurfaces them; the
// local removal and the ledger entry stick even when the backend call
// fails, because the user's dismissal intent outranks a transient
// backend error. Local-only items are removed immediately.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	n := e.notifications[idx]
	e.mu.Unlock()

	if !n.BackendOrigin() {
		e.remove(id)
		return e.persistLocal(ctx)
	}

	var putErr error
	if src, ok := e.bySource[n.SourceType]; ok {
		putErr = src.MarkRead(ctx, n.BackendID)
	} else {
		putErr = fmt.Errorf("no source registered for %s", n.SourceType)
	}

	e.remove(id)

	e.mu.Lock()
	e.ledger.record(n.ID)
	capacity := e.ledger.capacity
	e.mu.Unlock()

	if err := e.store.AddDismissed(ctx, e.userID, n.ID, capacity); err != nil {
		e.log.Warn("persisting dismissal failed",
			zap.String("id", n.ID), zap.Error(err))
	}

	if putErr != nil {
		if source.IsAuthError(putErr) {
			e.gate.Invalidate()
		}
		return putErr
	}
	return nil
}

// ClearAll empties the store and the persisted local-only cache. The
// dismissal ledger and backend read state are untouched.
func (e *Engine) ClearAll(ctx context.Context) error {
	e.mu.Lock()
	e.notifications = nil
	e.mu.Unlock()

	return e.store.ClearLocal(ctx, e.userID)
}

// AddLocal inserts a local-only notification, e.g. one produced by a
// real-time side channel. The self-notification filter applies here
// exactly as it does to fetched records.
func (e *Engine) AddLocal(ctx context.Context, n model.Notification) error {
	if e.filterSelf && n.Metadata["requester_id"] == e.userID &&
		n.Metadata["requester_id"] != "" {
		return nil
	}

	if n.ID == "" {
		n.ID = model.LocalNotificationID()
	}
	n.BackendID = 0
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	e.mu.Lock()
	if e.indexOf(n.ID) >= 0 {
		// Identity is first-seen-wins here too.
		e.mu.Unlock()
		return nil
	}
	e.notifications = append([]model.Notification{n}, e.notifications...)
	e.mu.Unlock()

	return e.persistLocal(ctx)
}

// SetEnabled flips the persisted engine toggle. Disabling forces the
// scheduler idle and cancels any in-flight fetch; re-enabling resumes
// polling when the session is still valid.
func (e *Engine) SetEnabled(ctx context.Context, enabled bool) error {
	e.mu.Lock()
	e.enabled = enabled
	if !enabled {
		e.generation++
		if e.cancelFetch != nil {
			e.cancelFetch()
			e.cancelFetch = nil
		}
		e.inFlight = false
	}
	e.mu.Unlock()

	if err := e.store.SetEnabled(ctx, e.userID, enabled); err != nil {
		return err
	}

	if !enabled {
		e.enterIdle()
	} else if e.gate.Valid() {
		e.enterActive()
		go func() { _ = e.refresh(true, false) }()
	}
	return nil
}

// indexOf returns the position of id in the store, or -1. Callers must
// hold e.mu.
func (e *Engine) indexOf(id string) int {
	for i, n := range e.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// remove deletes id from the store if present.
func (e *Engine) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(id); i >= 0 {
		e.notifications = append(e.notifications[:i], e.notifications[i+1:]...)
	}
}

// persistLocal writes the current local-only notifications to the
// state store. Called after every operation that touches them.
func (e *Engine) persistLocal(ctx context.Context) error {
	e.mu.Lock()
	var local []model.Notification
	for _, n := range e.notifications {
		if !n.BackendOrigin() {
			local = append(local, n)
		}
	}
	e.mu.Unlock()

	if err := e.store.SaveLocal(ctx, e.userID, local); err != nil {
		return fmt.Errorf("persisting local notifications: %w", err)
	}
	return nil
}
