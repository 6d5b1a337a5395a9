// Package engine implements the ATB turn-order scheduler.
//
// Every unit carries two countdown timers. The passive timer counts down an
// in-progress cast; the active timer counts down recovery. A unit is ready when
// both timers are at zero. The engine advances simulated time, decides which
// unit acts next, and commits the timer changes when a unit starts or cancels
// an action.
//
// ARCHITECTURE:
//
// Single-Writer State:
// All state (clock, roster, settings, selection, log) lives behind one mutex.
// Each command is a single critical section, so no two transitions ever
// interleave. Derived views (ready set, current unit, sorted roster) are pure
// functions of that state and are recomputed on every query.
//
// Deferred Work:
// Follow-up work is never performed inside the mutation that caused it. It is
// posted to a FIFO event queue and processed by Run (production) or Drain
// (tests and the scenario harness):
//   - EventTypeAutoAdvanceCheck: posted after a mutation when auto-advance is
//     on and nobody is ready
//   - EventTypeDriverTick: posted by the auto-advance schedule every cadence
//
// Auto-Advance:
// A driver run repeatedly steps the clock by one second on a real-time cadence
// (250ms by default) until a unit is ready or the roster is empty. Only one
// run is ever in flight. Runs carry a token; stopping a run invalidates any
// tick it already queued.
//
// Time:
// Simulated time and timers are time.Duration. Creation order (AddedAt) comes
// from a monotonic counter, never from wall-clock time.
package engine
