// Package engine implements the notification synchronization engine: it
// aggregates the backend notification streams into one deduplicated
// inbox, drives adaptive polling, and applies optimistic read-state
// mutations with rollback. One Engine instance is created per login
// session and owns every timer and flag it uses.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peopledesk/notify/internal/model"
	"github.com/peopledesk/notify/internal/session"
	"github.com/peopledesk/notify/internal/source"
	"github.com/peopledesk/notify/internal/store"
)

var (
	// ErrNotStarted is returned by operations invoked before Start or
	// after Stop.
	ErrNotStarted = errors.New("notification engine: not started")

	// ErrSessionInvalid is returned when the session gate holds no
	// usable credential.
	ErrSessionInvalid = errors.New("notification engine: no valid session")

	// ErrDisabled is returned when the persisted engine toggle is off.
	ErrDisabled = errors.New("notification engine: disabled")

	// ErrRefreshFailed is surfaced after a manual refresh in which
	// every source failed and nothing could be loaded.
	ErrRefreshFailed = errors.New("notification engine: failed to load notifications")
)

// Config holds the collaborators and tunables for one Engine instance.
type Config struct {
	// UserID namespaces all persisted state.
	UserID string

	// Sources are the notification streams to aggregate.
	Sources []source.Source

	// Gate holds the session credential.
	Gate *session.Gate

	// Store persists local-only notifications, the dismissal ledger,
	// and the enabled toggle.
	Store store.StateStore

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// MinFetchInterval throttles non-manual refreshes. Default 30s.
	MinFetchInterval time.Duration

	// PollInterval runs a fixed-interval refresh loop while active.
	// Zero keeps the engine purely event-driven.
	PollInterval time.Duration

	// RetryBackoff delays the single retry after a failed refresh.
	// Default 10s.
	RetryBackoff time.Duration

	// IdleTimeout stops polling after this much inactivity. Default 10m.
	IdleTimeout time.Duration

	// DismissedCapacity bounds the dismissal ledger. Default 1000.
	DismissedCapacity int

	// FilterSelf applies the self-notification filter to locally
	// inserted notifications carrying a requester id.
	FilterSelf bool
}

// Engine aggregates the backend streams into one canonical notification
// store. All exported methods are safe for concurrent use.
type Engine struct {
	userID   string
	sources  []source.Source
	bySource map[model.SourceType]source.Source
	gate     *session.Gate
	store    store.StateStore
	log      *zap.Logger

	minFetchInterval time.Duration
	pollInterval     time.Duration
	retryBackoff     time.Duration
	idleTimeout      time.Duration
	filterSelf       bool

	mu            sync.Mutex
	started       bool
	enabled       bool
	visible       bool
	active        bool
	notifications []model.Notification
	ledger        *dismissalLedger

	inFlight      bool
	generation    uint64
	cancelFetch   context.CancelFunc
	lastFetchAt   time.Time
	lastSuccessAt time.Time
	lastErr       error

	retryTimer *time.Timer
	idleTimer  *time.Timer
	pollStop   chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// New creates an engine from cfg. Gate, Store, and at least the user id
// are required.
func New(cfg Config) (*Engine, error) {
	if cfg.UserID == "" {
		return nil, errors.New("engine config: user id is required")
	}
	if cfg.Gate == nil {
		return nil, errors.New("engine config: session gate is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("engine config: state store is required")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	minInterval := cfg.MinFetchInterval
	if minInterval <= 0 {
		minInterval = 30 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 10 * time.Second
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	capacity := cfg.DismissedCapacity
	if capacity <= 0 {
		capacity = 1000
	}

	bySource := make(map[model.SourceType]source.Source, len(cfg.Sources))
	for _, src := range cfg.Sources {
		bySource[src.Type()] = src
	}

	return &Engine{
		userID:           cfg.UserID,
		sources:          cfg.Sources,
		bySource:         bySource,
		gate:             cfg.Gate,
		store:            cfg.Store,
		log:              log,
		minFetchInterval: minInterval,
		pollInterval:     cfg.PollInterval,
		retryBackoff:     backoff,
		idleTimeout:      idle,
		filterSelf:       cfg.FilterSelf,
		ledger:           newDismissalLedger(capacity, nil),
	}, nil
}

// Start loads persisted state and, when the credential is valid and the
// engine enabled, begins polling with an immediate refresh.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.visible = true
	e.baseCtx, e.baseCancel = context.WithCancel(context.Background())
	capacity := e.ledger.capacity
	e.mu.Unlock()

	// A failed load must not leave the engine half-started: roll the
	// flag back so a later Start runs the full sequence again.
	loaded := false
	defer func() {
		if loaded {
			return
		}
		e.mu.Lock()
		e.started = false
		e.visible = false
		if e.baseCancel != nil {
			e.baseCancel()
			e.baseCancel = nil
			e.baseCtx = nil
		}
		e.mu.Unlock()
	}()

	enabled, err := e.store.Enabled(ctx, e.userID)
	if err != nil {
		return err
	}

	dismissed, err := e.store.LoadDismissed(ctx, e.userID, capacity)
	if err != nil {
		return err
	}

	local, err := e.store.LoadLocal(ctx, e.userID)
	if err != nil {
		return err
	}
	loaded = true

	e.mu.Lock()
	e.enabled = enabled
	e.ledger = newDismissalLedger(capacity, dismissed)
	e.notifications = reconcile(nil, local, e.ledger.Contains)
	e.mu.Unlock()

	e.log.Debug("engine started",
		zap.String("user_id", e.userID),
		zap.Bool("enabled", enabled),
		zap.Int("dismissed", len(dismissed)),
		zap.Int("cached_local", len(local)),
	)

	if enabled && e.gate.Valid() {
		e.enterActive()
		go func() { _ = e.refresh(true, false) }()
	}
	return nil
}

// Stop tears the engine down: it cancels any in-flight fetch, stops all
// timers, and clears the in-memory store. The dismissal ledger's
// persisted state deliberately survives so dismissed items cannot
// resurface after the next login.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.generation++
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	e.inFlight = false
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	e.notifications = nil
	e.lastErr = nil
	cancel := e.baseCancel
	e.mu.Unlock()

	e.enterIdle()
	if cancel != nil {
		cancel()
	}
	e.log.Debug("engine stopped", zap.String("user_id", e.userID))
}

// Refresh fetches all sources and reconciles the results into the
// canonical store. Manual refreshes bypass the minimum-interval
// throttle and re-enter the active polling state.
func (e *Engine) Refresh(manual bool) error {
	return e.refresh(manual, false)
}

// refresh implements the fetch orchestration. retry marks the
// post-failure retry, which bypasses the throttle like a manual call
// but stays silent.
func (e *Engine) refresh(manual, retry bool) error {
	if !e.gate.Valid() {
		return ErrSessionInvalid
	}

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if !e.enabled {
		e.mu.Unlock()
		return ErrDisabled
	}
	if e.inFlight {
		// Single flight: a concurrent refresh is already doing the work.
		e.mu.Unlock()
		return nil
	}
	if !manual && !retry && !e.lastFetchAt.IsZero() &&
		time.Since(e.lastFetchAt) < e.minFetchInterval {
		e.mu.Unlock()
		return nil
	}

	// A token from an earlier, still-pending call is cancelled; its
	// results are discarded by the generation check when they land.
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.cancelFetch = cancel
	e.inFlight = true
	e.generation++
	gen := e.generation
	sources := e.sources
	e.mu.Unlock()

	if manual {
		e.enterActive()
	}

	results := fetchAll(ctx, sources)

	e.mu.Lock()
	if gen != e.generation || !e.started {
		// A newer refresh superseded this one, or the engine was torn
		// down while we were waiting. Drop the stale results.
		e.mu.Unlock()
		return nil
	}
	e.inFlight = false
	e.cancelFetch = nil
	e.mu.Unlock()

	// Any authorization failure invalidates the whole session before
	// anything is reconciled.
	for _, r := range results {
		if source.IsAuthError(r.err) {
			e.log.Warn("source rejected credentials, invalidating session",
				zap.String("source", string(r.st)),
			)
			e.gate.Invalidate()
			e.enterIdle()
			return r.err
		}
	}

	var fresh []model.Notification
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			e.log.Warn("source fetch failed",
				zap.String("source", string(r.st)),
				zap.Error(r.err),
			)
			continue
		}
		fresh = append(fresh, r.items...)
	}

	allFailed := len(sources) > 0 && failures == len(sources)

	e.mu.Lock()
	if gen != e.generation || !e.started {
		// A newer refresh started while we were classifying results;
		// its token superseded ours.
		e.mu.Unlock()
		return nil
	}
	e.notifications = reconcile(e.notifications, fresh, e.ledger.Contains)
	e.lastFetchAt = time.Now()
	if failures == 0 {
		e.lastSuccessAt = e.lastFetchAt
		e.lastErr = nil
	} else if manual && allFailed {
		e.lastErr = ErrRefreshFailed
	}
	e.mu.Unlock()

	if failures > 0 && !retry {
		e.scheduleRetry()
	}

	if manual && allFailed {
		return ErrRefreshFailed
	}
	return nil
}

// scheduleRetry arms a single delayed retry after a failed refresh. The
// retry is skipped when a refresh succeeds before the timer fires.
func (e *Engine) scheduleRetry() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.retryTimer != nil {
		return
	}

	failedAt := time.Now()
	e.retryTimer = time.AfterFunc(e.retryBackoff, func() {
		e.mu.Lock()
		e.retryTimer = nil
		skip := !e.started || e.lastSuccessAt.After(failedAt)
		e.mu.Unlock()
		if skip {
			return
		}
		if err := e.refresh(false, true); err != nil {
			e.log.Warn("retry refresh failed", zap.Error(err))
		}
	})
}

// fetchResult carries one source's contribution to a refresh batch.
type fetchResult struct {
	st    model.SourceType
	items []model.Notification
	err   error
}

// fetchAll issues every source request concurrently and waits for the
// whole batch. The shared ctx cancels all of them together.
func fetchAll(ctx context.Context, sources []source.Source) []fetchResult {
	results := make([]fetchResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			items, err := src.Fetch(ctx)
			results[i] = fetchResult{st: src.Type(), items: items, err: err}
		}(i, src)
	}
	wg.Wait()

	return results
}

// Notifications returns a copy of the canonical notification list,
// newest first.
func (e *Engine) Notifications() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Notification, len(e.notifications))
	copy(out, e.notifications)
	return out
}

// UnreadCount returns the number of unread notifications in the store.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, n := range e.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// State is a snapshot of the engine's public state for the host UI.
type State struct {
	Notifications []model.Notification
	UnreadCount   int
	Syncing       bool
	LastSyncAt    time.Time
	LastError     error
}

// Snapshot returns the engine's current public state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Notifications: make([]model.Notification, len(e.notifications)),
		Syncing:       e.inFlight,
		LastSyncAt:    e.lastFetchAt,
		LastError:     e.lastErr,
	}
	copy(st.Notifications, e.notifications)
	for _, n := range e.notifications {
		if !n.Read {
			st.UnreadCount++
		}
	}
	return st
}
