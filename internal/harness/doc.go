// Package harness runs battle scenarios against a deterministic engine.
//
// A scenario is a YAML file: an optional encounter to start from, a list of
// commands, and assertions on the final battle. Units are addressed by name.
//
// # Scenario Format
//
//	name: ada_acts
//	description: "Ada casts, recovers, and is ready again"
//	encounter: party.cue          # optional, relative to the scenario file
//	steps:
//	  - do: add
//	    unit: Ada
//	    role: Player
//	  - do: act
//	  - do: step
//	    seconds: 3
//	  - do: act
//	    expect: rejected
//	    code: NO_TARGET
//	  - do: advance
//	assertions:
//	  - type: now
//	    seconds: 6
//	  - type: timers
//	    unit: Ada
//	    active: 0
//	    passive: 0
//
// # Commands
//
//   - add: unit, role, initiative
//   - remove, cancel, select: unit
//   - step: seconds
//   - advance: start auto-advance and run it to completion
//   - act: optional unit (targeted directly), optional action, recovery and
//     separate_recovery overrides
//   - set: auto_advance, separate_recovery, action, recovery (each optional)
//   - reset_defaults, reset
//
// Every step may state expect: ok (the default), rejected, or any. A
// rejected expectation may also name the rejection code.
//
// # Assertion Types
//
//   - now: simulated time in seconds
//   - ready: names of the ready units, roster order
//   - current: the unit the next act applies to ("" for none)
//   - timers: a unit's active and/or passive seconds
//   - roster_order: display order of the roster
//   - log_contains: some log message contains the text
//   - log_order: messages appear in this chronological order
//   - log_count: number of log entries (optionally those containing message)
//
// # Deterministic Testing
//
// Every run uses a fresh engine with sequential unit ids and a manual
// scheduler. After each step the harness drains deferred work and pumps the
// scheduler until auto-advance has stopped, so results never depend on wall
// time. Identical scenarios produce identical traces and state hashes, which
// RunWithGolden compares against golden files.
package harness
