package engine

import "sync"

// EventType distinguishes deferred work items.
type EventType int

const (
	// EventTypeAutoAdvanceCheck asks the engine to start the driver if
	// auto-advance is on and nobody is ready.
	EventTypeAutoAdvanceCheck EventType = iota + 1
	// EventTypeDriverTick is one cadence tick of a driver run.
	EventTypeDriverTick
)

func (t EventType) String() string {
	switch t {
	case EventTypeAutoAdvanceCheck:
		return "auto_advance_check"
	case EventTypeDriverTick:
		return "driver_tick"
	default:
		return "unknown"
	}
}

// Event is one deferred work item.
type Event struct {
	Type EventType
	// Token identifies the driver run that posted a tick. Ticks whose token no
	// longer matches the active run are discarded.
	Token int64
}

// eventQueue is a thread-safe FIFO queue for deferred events.
//
// Producers are engine commands (under the engine lock) and scheduler
// callbacks (on their own goroutine). The single consumer is Run or Drain.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued and wakes waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
