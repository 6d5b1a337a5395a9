// Package snapshot defines the persisted form of a battle.
//
// A State captures everything needed to resume a battle losslessly: the
// simulated clock, the creation-order sequence, every unit with both timers,
// the action settings and mode flags, the user's selection, and the event log.
//
// All numeric fields are integers. Durations are stored as nanoseconds so the
// canonical JSON form never needs floats, and two States that compare equal
// always hash to the same value.
//
// # Canonical JSON
//
// MarshalCanonical produces RFC 8785 style output:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping
//   - strings NFC normalized
//   - floats and null rejected
//
// Hash computes SHA256(domain + 0x00 + canonical JSON) so a state hash can be
// compared across processes, golden files, and store round trips.
package snapshot
