package engine

import (
	"sync"
	"time"
)

// DefaultCadence is the real-time interval between auto-advance ticks.
const DefaultCadence = 250 * time.Millisecond

// Timer is a cancellable repeating task.
type Timer interface {
	// Stop cancels the task. Returns true if this call stopped it, false if
	// it was already stopped.
	Stop() bool
}

// Scheduler runs repeating tasks on a real-time (or virtual) cadence.
// Implemented by RealScheduler (production) and ManualScheduler (tests).
type Scheduler interface {
	// Every calls fn once per interval until the returned Timer is stopped.
	Every(interval time.Duration, fn func()) Timer
}

// RealScheduler runs tasks on a time.Ticker in their own goroutine.
type RealScheduler struct{}

// Every implements Scheduler.
func (RealScheduler) Every(interval time.Duration, fn func()) Timer {
	t := &realTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

type realTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTimer) loop(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *realTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// ManualScheduler is a virtual-time Scheduler. Nothing fires until Advance is
// called; callbacks then run synchronously on the caller's goroutine in due
// order. This makes auto-advance fully deterministic in tests.
//
// Thread-safety: safe for concurrent use. Callbacks run without the internal
// lock held, so they may start or stop other tasks.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s        *ManualScheduler
	interval time.Duration
	next     time.Duration
	fn       func()
	stopped  bool
}

// Every implements Scheduler. Panics on a non-positive interval, as
// time.NewTicker does.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		panic("ManualScheduler: non-positive interval")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{s: s, interval: interval, next: s.now + interval, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward by d, firing every callback that comes
// due. Returns the number of callbacks fired.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	fired := 0
	for {
		t := s.nextDueLocked(target)
		if t == nil {
			break
		}
		s.now = t.next
		t.next += t.interval
		fn := t.fn

		s.mu.Unlock()
		fn()
		fired++
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
	return fired
}

// nextDueLocked returns the active timer with the earliest due time at or
// before target, pruning stopped timers. Ties go to the earliest registered.
func (s *ManualScheduler) nextDueLocked(target time.Duration) *manualTimer {
	active := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			active = append(active, t)
		}
	}
	clear(s.timers[len(active):])
	s.timers = active

	var best *manualTimer
	for _, t := range s.timers {
		if t.next > target {
			continue
		}
		if best == nil || t.next < best.next {
			best = t
		}
	}
	return best
}

// Now returns the virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Active returns the number of tasks that have not been stopped.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
