package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
)

func TestVisibilityTransitions(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Sources: []source.Source{f}})
	startBare(t, e)

	e.SetVisible(true)
	assert.True(t, e.Active())

	require.Eventually(t, func() bool { return f.calls() >= 1 },
		time.Second, time.Millisecond)

	e.SetVisible(false)
	assert.False(t, e.Active())
}

func TestIdleTimeoutStopsPolling(t *testing.T) {
	e := newTestEngine(t, Config{IdleTimeout: 30 * time.Millisecond})
	startBare(t, e)

	e.SetVisible(true)
	require.True(t, e.Active())

	require.Eventually(t, func() bool { return !e.Active() },
		time.Second, 5*time.Millisecond)
}

func TestManualRefreshReentersActive(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{
		Sources:     []source.Source{f},
		IdleTimeout: 20 * time.Millisecond,
	})
	startBare(t, e)

	e.SetVisible(true)
	require.Eventually(t, func() bool { return !e.Active() },
		time.Second, 5*time.Millisecond)

	require.NoError(t, e.Refresh(true))
	assert.True(t, e.Active())
}

func TestIntervalPolling(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{
		Sources:          []source.Source{f},
		PollInterval:     15 * time.Millisecond,
		MinFetchInterval: time.Millisecond,
	})
	startBare(t, e)

	e.SetVisible(true)

	require.Eventually(t, func() bool { return f.calls() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestHiddenEngineStaysIdle(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Sources: []source.Source{f}})
	startBare(t, e)

	e.SetVisible(false)
	assert.False(t, e.Active())

	// enterActive refuses to arm timers while hidden.
	e.enterActive()
	assert.False(t, e.Active())
}
