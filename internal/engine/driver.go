package engine

import (
	"context"
	"time"
)

// AdvanceToNextReady starts an auto-advance run: the clock steps one second
// per cadence tick until a unit is ready or the roster is empty.
//
// Rejected when the roster is empty, a run is already in flight, or a unit is
// already ready (there is nothing to advance to).
func (e *Engine) AdvanceToNextReady() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startDriverLocked()
}

// StopAdvance cancels the in-flight run, if any.
func (e *Engine) StopAdvance() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopDriverLocked("stopped")
}

func (e *Engine) startDriverLocked() error {
	units := e.registry.List()
	switch {
	case len(units) == 0:
		return reject(ErrCodeRosterEmpty, "", "no units on the roster")
	case e.drv.running:
		return reject(ErrCodeAlreadyAdvancing, "", "auto-advance already running")
	case AnyReady(units):
		return reject(ErrCodeAlreadyReady, "", "a unit is already ready")
	}

	e.drv.token++
	token := e.drv.token
	e.drv.running = true
	e.drv.timer = e.sched.Every(e.cadence, func() {
		e.queue.Enqueue(Event{Type: EventTypeDriverTick, Token: token})
	})

	e.logger.Info("auto-advance started",
		"token", token,
		"cadence", e.cadence,
		"now", e.clock.Now(),
	)
	return nil
}

// stopDriverLocked cancels the schedule and invalidates any tick the run
// already queued. No-op when nothing is running.
func (e *Engine) stopDriverLocked(reason string) {
	if !e.drv.running {
		return
	}
	if e.drv.timer != nil {
		e.drv.timer.Stop()
	}
	e.drv.timer = nil
	e.drv.running = false
	e.drv.token++

	e.logger.Info("auto-advance stopped",
		"reason", reason,
		"now", e.clock.Now(),
	)
}

// driverTickLocked applies one tick of the active run.
func (e *Engine) driverTickLocked(token int64) {
	if !e.drv.running || token != e.drv.token {
		e.logger.Debug("stale driver tick discarded", "token", token)
		return
	}

	if !e.stepLocked(time.Second) {
		e.stopDriverLocked("clock exhausted")
		return
	}

	units := e.registry.List()
	switch {
	case len(units) == 0:
		e.stopDriverLocked("roster empty")
	case AnyReady(units):
		e.stopDriverLocked("unit ready")
	}
}

// Run starts the event loop that applies deferred work.
// Blocks until the context is cancelled or Stop is called.
//
// Must be called from at most one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.processEvent(ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.Stop()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain applies every queued event on the caller's goroutine and returns how
// many were processed. Events queued while draining are processed too.
func (e *Engine) Drain() int {
	n := 0
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		e.processEvent(ev)
		n++
	}
}

// Pending returns the number of queued events.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Stop cancels any auto-advance run and closes the event queue, which makes
// Run return. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopDriverLocked("engine stopped")
	e.mu.Unlock()

	e.queue.Close()
}

func (e *Engine) processEvent(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case EventTypeAutoAdvanceCheck:
		e.checkPending = false
		if !e.settings.AutoAdvance {
			return
		}
		if err := e.startDriverLocked(); err != nil {
			e.logger.Debug("auto-advance not started", "reason", err)
		}

	case EventTypeDriverTick:
		e.driverTickLocked(ev.Token)

	default:
		e.logger.Warn("unknown event type", "type", int(ev.Type))
	}
}
