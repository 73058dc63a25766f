package engine

import (
	"time"

	"go.uber.org/zap"
)

// The scheduler is a two-state machine, Idle and Active. The engine
// enters Active when the credential is valid and the host reports the
// document visible; it falls back to Idle on visibility loss, credential
// loss, or idle timeout. Idle timeout stops future polling but never
// cancels a fetch already in flight.

// SetVisible is the host's visibility/activity signal. Becoming visible
// with a valid credential re-enters Active and triggers a refresh;
// becoming hidden forces Idle immediately.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.visible = visible
	enabled := e.enabled
	e.mu.Unlock()

	if !visible {
		e.enterIdle()
		return
	}
	if enabled && e.gate.Valid() {
		e.enterActive()
		go func() { _ = e.refresh(true, false) }()
	}
}

// enterActive arms the idle timer and, when a poll interval is
// configured, starts the fixed-interval loop. Re-entering while already
// active just re-arms the idle timer.
func (e *Engine) enterActive() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || !e.visible {
		return
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(e.idleTimeout, func() {
		e.log.Debug("idle timeout, stopping polling")
		e.enterIdle()
	})

	if e.active {
		return
	}
	e.active = true
	e.log.Debug("scheduler active")

	if e.pollInterval > 0 {
		stop := make(chan struct{})
		e.pollStop = stop
		go e.pollLoop(stop)
	}
}

// enterIdle stops the idle timer and the interval loop. An in-flight
// fetch keeps running; only future polling stops.
func (e *Engine) enterIdle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	if !e.active {
		return
	}
	e.active = false
	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}
	e.log.Debug("scheduler idle")
}

// pollLoop runs the fixed-interval refresh loop until stopped.
func (e *Engine) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := e.refresh(false, false); err != nil {
				e.log.Debug("interval refresh skipped", zap.Error(err))
			}
		}
	}
}

// Active reports whether the scheduler is currently in the Active state.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}
