package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateValidity(t *testing.T) {
	g := NewGate("u1", "tok", nil)
	assert.True(t, g.Valid())
	assert.Equal(t, "tok", g.Token())
	assert.Equal(t, "u1", g.UserID())

	empty := NewGate("u1", "", nil)
	assert.False(t, empty.Valid())
}

func TestInvalidateFiresCallbackOnce(t *testing.T) {
	calls := 0
	g := NewGate("u1", "tok", func() { calls++ })

	// Several sources may detect the same expired credential in one
	// batch; only the first invalidation counts.
	g.Invalidate()
	g.Invalidate()
	g.Invalidate()

	assert.Equal(t, 1, calls)
	assert.False(t, g.Valid())
	assert.Empty(t, g.Token())
}
