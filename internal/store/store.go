// Package store persists the engine state that must survive restarts:
// the local-only notification cache, the dismissed-id ledger, and the
// engine-enabled toggle. Everything is namespaced by user id.
package store

import (
	"context"

	"github.com/peopledesk/notify/internal/model"
)

// StateStore defines the persistence interface for per-user engine state.
type StateStore interface {
	// === Local-only notification cache ===

	SaveLocal(ctx context.Context, userID string, items []model.Notification) error
	LoadLocal(ctx context.Context, userID string) ([]model.Notification, error)
	ClearLocal(ctx context.Context, userID string) error

	// === Dismissed-id ledger ===

	// AddDismissed records one dismissal key, evicting the oldest
	// entries beyond capacity (FIFO).
	AddDismissed(ctx context.Context, userID, key string, capacity int) error

	// LoadDismissed returns the newest dismissal keys, oldest first,
	// capped at limit.
	LoadDismissed(ctx context.Context, userID string, limit int) ([]string, error)

	// === Engine toggle ===

	SetEnabled(ctx context.Context, userID string, enabled bool) error
	Enabled(ctx context.Context, userID string) (bool, error)

	Close() error
}
