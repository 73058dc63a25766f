package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/source"
	"github.com/peopledesk/notify/tests/testutil"
)

func seed(e *Engine, items ...model.Notification) {
	e.mu.Lock()
	e.notifications = items
	e.mu.Unlock()
}

func findByID(items []model.Notification, id string) *model.Notification {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func TestMarkReadOptimistic(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Sources: []source.Source{f}})
	startBare(t, e)
	seed(e, backendItem(model.SourceTypeTask, 1, time.Now()))

	require.NoError(t, e.MarkRead(context.Background(), "task-1"))

	got := findByID(e.Notifications(), "task-1")
	require.NotNil(t, got, "read items are retained, not removed")
	assert.True(t, got.Read)
	assert.Equal(t, []int{1}, f.marked())
}

func TestMarkReadRollsBackOnBackendFailure(t *testing.T) {
	f := &fakeSource{st: model.SourceTypeTask, markErr: errors.New("put failed")}
	e := newTestEngine(t, Config{Sources: []source.Source{f}})
	startBare(t, e)
	seed(e, backendItem(model.SourceTypeTask, 1, time.Now()))

	err := e.MarkRead(context.Background(), "task-1")
	require.Error(t, err)

	got := findByID(e.Notifications(), "task-1")
	require.NotNil(t, got)
	assert.False(t, got.Read, "read flag reverts to its pre-operation value")
}

func TestMarkReadLocalOnlySkipsBackend(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Store: st, Sources: []source.Source{f}})
	startBare(t, e)

	local := localItem("local-1", time.Now())
	seed(e, local)

	require.NoError(t, e.MarkRead(ctx, "local-1"))
	assert.Empty(t, f.marked())

	// The read flag is persisted with the local cache.
	cached, err := st.LoadLocal(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.True(t, cached[0].Read)
}

func TestMarkReadUnknownIDIsNoop(t *testing.T) {
	e := newTestEngine(t, Config{})
	startBare(t, e)

	require.NoError(t, e.MarkRead(context.Background(), "nope"))
}

func TestMarkAllReadAllOrNothing(t *testing.T) {
	now := time.Now()
	items := []model.Notification{
		backendItem(model.SourceTypeTask, 1, now),
		backendItem(model.SourceTypeTask, 2, now),
		backendItem(model.SourceTypeLeave, 9, now),
	}

	taskSrc := &fakeSource{st: model.SourceTypeTask, items: items[:2]}
	leaveSrc := &fakeSource{
		st:      model.SourceTypeLeave,
		items:   items[2:],
		markErr: errors.New("put failed"),
	}
	e := newTestEngine(t, Config{Sources: []source.Source{taskSrc, leaveSrc}})
	startBare(t, e)
	seed(e, items...)

	err := e.MarkAllRead(context.Background())
	require.Error(t, err)

	// One failed PUT reverts every flipped item.
	for _, n := range e.Notifications() {
		assert.False(t, n.Read, "%s should have reverted", n.ID)
	}
}

func TestMarkAllReadSuccess(t *testing.T) {
	now := time.Now()
	taskSrc := &fakeSource{st: model.SourceTypeTask}
	leaveSrc := &fakeSource{st: model.SourceTypeLeave}
	e := newTestEngine(t, Config{Sources: []source.Source{taskSrc, leaveSrc}})
	startBare(t, e)

	already := backendItem(model.SourceTypeTask, 3, now)
	already.Read = true
	seed(e,
		backendItem(model.SourceTypeTask, 1, now),
		backendItem(model.SourceTypeLeave, 9, now),
		already,
		localItem("local-1", now),
	)

	require.NoError(t, e.MarkAllRead(context.Background()))

	for _, n := range e.Notifications() {
		assert.True(t, n.Read)
	}
	// Already-read items are not re-confirmed.
	assert.Equal(t, []int{1}, taskSrc.marked())
	assert.Equal(t, []int{9}, leaveSrc.marked())
	assert.Equal(t, 0, e.UnreadCount())
}

func TestDismissPermanence(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := testutil.NewTestStore(t)

	f := &fakeSource{
		st: model.SourceTypeTask,
		items: []model.Notification{
			backendItem(model.SourceTypeTask, 42, now),
			backendItem(model.SourceTypeTask, 43, now),
		},
	}
	e := newTestEngine(t, Config{Store: st, Sources: []source.Source{f}})
	startBare(t, e)

	require.NoError(t, e.Refresh(true))
	require.Len(t, e.Notifications(), 2)

	require.NoError(t, e.Dismiss(ctx, "task-42"))
	assert.Equal(t, []int{42}, f.marked(), "dismissal implies read")
	assert.Nil(t, findByID(e.Notifications(), "task-42"))

	// The backend still returns 42 as unread; it must not resurface.
	require.NoError(t, e.Refresh(true))
	assert.Nil(t, findByID(e.Notifications(), "task-42"))
	assert.NotNil(t, findByID(e.Notifications(), "task-43"))

	// And it survives a full engine restart on the same store.
	e2 := newTestEngine(t, Config{Store: st, Sources: []source.Source{f}})
	require.NoError(t, e2.Start(ctx))
	t.Cleanup(e2.Stop)

	require.Eventually(t, func() bool {
		return findByID(e2.Notifications(), "task-43") != nil
	}, time.Second, time.Millisecond)
	assert.Nil(t, findByID(e2.Notifications(), "task-42"))
}

func TestDismissCommitsLocallyOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	f := &fakeSource{st: model.SourceTypeTask, markErr: errors.New("put failed")}
	e := newTestEngine(t, Config{Sources: []source.Source{f}})
	startBare(t, e)
	seed(e, backendItem(model.SourceTypeTask, 42, time.Now()))

	err := e.Dismiss(ctx, "task-42")
	require.Error(t, err, "the failure is surfaced")

	// The user's dismissal intent wins over the transient failure.
	assert.Nil(t, findByID(e.Notifications(), "task-42"))

	e.mu.Lock()
	dismissed := e.ledger.Contains("task-42")
	e.mu.Unlock()
	assert.True(t, dismissed)
}

func TestDismissUnknownSourceStillCommits(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})
	startBare(t, e)
	seed(e, backendItem(model.SourceTypeTask, 7, time.Now()))

	// No source is registered for the item's type: the missing read
	// confirmation is surfaced, but the dismissal itself sticks.
	err := e.Dismiss(ctx, "task-7")
	require.Error(t, err)

	assert.Nil(t, findByID(e.Notifications(), "task-7"))

	e.mu.Lock()
	dismissed := e.ledger.Contains("task-7")
	e.mu.Unlock()
	assert.True(t, dismissed)
}

func TestDismissLocalOnly(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Store: st, Sources: []source.Source{f}})
	startBare(t, e)
	seed(e, localItem("local-1", time.Now()))

	require.NoError(t, e.Dismiss(ctx, "local-1"))

	assert.Empty(t, e.Notifications())
	assert.Empty(t, f.marked())

	cached, err := st.LoadLocal(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	e := newTestEngine(t, Config{Store: st})
	startBare(t, e)

	require.NoError(t, st.AddDismissed(ctx, "u1", "task-7", 1000))
	seed(e,
		backendItem(model.SourceTypeTask, 1, time.Now()),
		localItem("local-1", time.Now()),
	)
	require.NoError(t, e.persistLocal(ctx))

	require.NoError(t, e.ClearAll(ctx))

	assert.Empty(t, e.Notifications())

	cached, err := st.LoadLocal(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cached)

	// The dismissal ledger is untouched.
	keys, err := st.LoadDismissed(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"task-7"}, keys)
}

func TestAddLocal(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	e := newTestEngine(t, Config{Store: st, FilterSelf: true})
	startBare(t, e)

	require.NoError(t, e.AddLocal(ctx, model.Notification{
		SourceType: model.SourceTypeInfo,
		Title:      "Saved",
		Message:    "Your profile was updated",
	}))

	got := e.Notifications()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].BackendOrigin())

	cached, err := st.LoadLocal(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestAddLocalSelfFilter(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{FilterSelf: true})
	startBare(t, e)

	require.NoError(t, e.AddLocal(ctx, model.Notification{
		SourceType: model.SourceTypeInfo,
		Title:      "Own action",
		Metadata:   map[string]string{"requester_id": "u1"},
	}))

	assert.Empty(t, e.Notifications())
}

func TestSetEnabledPersistsAndGates(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	f := &fakeSource{st: model.SourceTypeTask}
	e := newTestEngine(t, Config{Store: st, Sources: []source.Source{f}})
	startBare(t, e)

	require.NoError(t, e.SetEnabled(ctx, false))

	enabled, err := st.Enabled(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.ErrorIs(t, e.Refresh(true), ErrDisabled)

	require.NoError(t, e.SetEnabled(ctx, true))
	require.Eventually(t, func() bool { return f.calls() >= 1 },
		time.Second, time.Millisecond)
}
