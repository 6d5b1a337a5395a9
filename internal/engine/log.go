package engine

import (
	"fmt"
	"time"
)

// DefaultLogCapacity is the number of entries the event log keeps.
const DefaultLogCapacity = 400

// LogEntry is one immutable line of battle history, stamped with the
// simulated time of the transition that produced it.
type LogEntry struct {
	At      time.Duration
	Message string
}

// String renders the entry as "[3.0s] message".
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", formatStamp(e.At), e.Message)
}

// EventLog is a bounded, most-recent-first history.
//
// INVARIANTS:
//   - Len() <= capacity
//   - Entries()[0] is the newest entry
//   - truncation drops the oldest entries, never reorders
type EventLog struct {
	entries  []LogEntry
	capacity int
}

// NewEventLog creates a log holding at most capacity entries.
// A non-positive capacity selects DefaultLogCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &EventLog{capacity: capacity}
}

// Push prepends an entry, dropping the oldest if the log is full.
func (l *EventLog) Push(e LogEntry) {
	n := min(len(l.entries)+1, l.capacity)
	next := make([]LogEntry, n)
	next[0] = e
	copy(next[1:], l.entries)
	l.entries = next
}

// Entries returns a copy of the log, newest first.
func (l *EventLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// Capacity returns the maximum number of entries.
func (l *EventLog) Capacity() int {
	return l.capacity
}

// Clear removes all entries.
func (l *EventLog) Clear() {
	l.entries = nil
}

// replace installs entries (newest first), truncating to capacity.
func (l *EventLog) replace(entries []LogEntry) {
	n := min(len(entries), l.capacity)
	l.entries = make([]LogEntry, n)
	copy(l.entries, entries[:n])
}
