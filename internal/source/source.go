// Package source defines the contract between the notification engine
// and the backend streams it aggregates, plus the tolerant payload
// decoding shared by every stream adapter.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/peopledesk/notify/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// source. It is returned by source clients when a 401 or 403 response
// is received.
type AuthError struct {
	SourceType model.SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Identity carries the current user's identity into normalization.
// Ownership and self-notification filtering both key off it.
type Identity struct {
	// UserID is the current user's backend identifier.
	UserID string

	// Role resolves role-dependent navigation targets.
	Role model.Role

	// FilterSelf drops records where the requester is the current user.
	FilterSelf bool
}

// Source defines the contract every notification stream adapter must
// implement.
type Source interface {
	// Type returns the stream type identifier.
	Type() model.SourceType

	// Fetch retrieves and normalizes the stream's current notifications
	// for the configured user. Records that fail the ownership or
	// self-notification filters are dropped, not errored.
	Fetch(ctx context.Context) ([]model.Notification, error)

	// MarkRead persists a read confirmation for one backend
	// notification.
	MarkRead(ctx context.Context, backendID int) error
}
