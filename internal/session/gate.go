// Package session holds the per-login credential gate. Every fetch and
// mutation consults the gate before touching the network, and any
// authorization failure funnels into a single Invalidate call.
package session

import (
	"sync"

	"github.com/peopledesk/notify/internal/credential"
)

// Gate holds the bearer credential for one engine instance and controls
// its validity. A 401/403 from any source endpoint invalidates the whole
// session exactly once, no matter how many endpoints failed in the batch.
type Gate struct {
	mu           sync.Mutex
	userID       string
	token        string
	invalidated  bool
	onInvalidate func()
}

// NewGate creates a gate for the given user holding the given bearer
// token. onInvalidate is called exactly once when the session is
// invalidated; it is how the host application learns it must redirect
// to an unauthenticated state. It may be nil.
func NewGate(userID, token string, onInvalidate func()) *Gate {
	return &Gate{
		userID:       userID,
		token:        token,
		onInvalidate: onInvalidate,
	}
}

// UserID returns the user this gate belongs to.
func (g *Gate) UserID() string {
	return g.userID
}

// Valid reports whether the gate currently holds a usable credential.
func (g *Gate) Valid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.invalidated && g.token != ""
}

// Token returns the current bearer token, or the empty string after
// invalidation.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.invalidated {
		return ""
	}
	return g.token
}

// Invalidate clears the credential, removes it from the keyring, and
// fires the host callback. Safe to call from multiple failure paths in
// one detection batch: only the first call has any effect.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	if g.invalidated {
		g.mu.Unlock()
		return
	}
	g.invalidated = true
	g.token = ""
	cb := g.onInvalidate
	g.mu.Unlock()

	// Best effort: the keyring entry may already be gone.
	_ = credential.DeleteToken(g.userID)

	if cb != nil {
		cb()
	}
}
