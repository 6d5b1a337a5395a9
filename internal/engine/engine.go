package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine is the turn-order scheduler.
//
// Thread-safety model:
//   - every command and query takes the engine lock; commands are atomic
//   - deferred work (auto-advance checks, driver ticks) is queued and applied
//     by Run or Drain, never inside the command that caused it
//   - Run must be called from at most one goroutine
//
// INVARIANTS:
//   - every unit has Active >= 0 and Passive >= 0
//   - at most one driver run is in flight
//   - the clock never moves backwards except through ResetAll
type Engine struct {
	mu sync.Mutex

	clock    *Clock
	registry *Registry
	log      *EventLog
	settings Settings
	selected string

	drv          driverState
	checkPending bool
	queue        *eventQueue

	ids     IDGenerator
	sched   Scheduler
	cadence time.Duration
	logger  *slog.Logger
}

// driverState tracks the single auto-advance run.
type driverState struct {
	running bool
	token   int64
	timer   Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the unit id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithScheduler sets the real-time scheduler used by auto-advance.
// Default: RealScheduler. Tests use ManualScheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.sched = s
	}
}

// WithCadence sets the real-time interval between auto-advance ticks.
// Default: 250ms. Non-positive values are ignored.
func WithCadence(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cadence = d
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithLogCapacity sets the number of event log entries kept. Default: 400.
func WithLogCapacity(n int) Option {
	return func(e *Engine) {
		e.log = NewEventLog(n)
	}
}

// WithSettings sets the initial action settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = normalizeSettings(s)
	}
}

// New creates an engine with an empty roster at time zero.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:    NewClock(),
		registry: NewRegistry(),
		log:      NewEventLog(DefaultLogCapacity),
		settings: DefaultSettings(),
		queue:    newEventQueue(),
		ids:      UUIDv7Generator{},
		sched:    RealScheduler{},
		cadence:  DefaultCadence,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// The *Locked helpers require e.mu.

func (e *Engine) pushLogLocked(format string, args ...any) {
	e.log.Push(LogEntry{
		At:      e.clock.Now(),
		Message: fmt.Sprintf(format, args...),
	})
}

// afterMutationLocked queues an auto-advance check when auto-advance is on,
// the roster is non-empty and nobody is ready. At most one check is pending.
func (e *Engine) afterMutationLocked() {
	if !e.settings.AutoAdvance || e.drv.running || e.checkPending {
		return
	}
	units := e.registry.List()
	if len(units) == 0 || AnyReady(units) {
		return
	}
	if e.queue.Enqueue(Event{Type: EventTypeAutoAdvanceCheck}) {
		e.checkPending = true
	}
}
