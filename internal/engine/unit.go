package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Role is a unit's side in the battle.
type Role string

const (
	RolePlayer Role = "Player"
	RoleEnemy  Role = "Enemy"
)

// ParseRole maps user input to a Role. Matching is case-insensitive and
// anything unrecognized falls back to RolePlayer.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enemy":
		return RoleEnemy
	default:
		return RolePlayer
	}
}

// Phase is the state encoded by a unit's timer pair.
type Phase int

const (
	// PhaseReady: both timers at zero.
	PhaseReady Phase = iota
	// PhaseCasting: the passive timer is still running. A pre-loaded active
	// timer waits until the cast resolves.
	PhaseCasting
	// PhaseRecovering: the cast resolved, the active timer is running.
	PhaseRecovering
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseCasting:
		return "casting"
	case PhaseRecovering:
		return "recovering"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Unit is one combatant.
//
// INVARIANT: Active >= 0 and Passive >= 0. Every code path that writes a timer
// clamps at zero.
type Unit struct {
	ID         string
	Name       string
	Role       Role
	Initiative int // accepted and persisted, not consulted by any ordering rule

	Active  time.Duration // recovery remaining
	Passive time.Duration // cast remaining

	AddedAt  int64         // creation order, unique per battle
	JoinedAt time.Duration // simulated time when the unit joined
}

// Ready reports whether the unit may act.
func (u Unit) Ready() bool {
	return u.Active <= 0 && u.Passive <= 0
}

// Phase returns the unit's position in the ready/casting/recovering cycle.
func (u Unit) Phase() Phase {
	switch {
	case u.Passive > 0:
		return PhaseCasting
	case u.Active > 0:
		return PhaseRecovering
	default:
		return PhaseReady
	}
}

// Status renders the phase for display.
func (u Unit) Status() string {
	switch {
	case u.Ready():
		return "Ready"
	case u.Passive > 0 && u.Active > 0:
		return fmt.Sprintf("Casting… resolves in %s, resting for %s", FormatSeconds(u.Passive), FormatSeconds(u.Active))
	case u.Passive > 0:
		return fmt.Sprintf("Casting… resolves in %s", FormatSeconds(u.Passive))
	default:
		return fmt.Sprintf("Recovering… ready in %s", FormatSeconds(u.Active))
	}
}

// drain applies one clock step to the unit. The passive timer has priority:
// while a cast is running the active timer does not move, even if the step is
// larger than the remaining cast.
func (u *Unit) drain(delta time.Duration) {
	switch {
	case u.Passive > 0:
		u.Passive = clampTimer(u.Passive - delta)
	case u.Active > 0:
		u.Active = clampTimer(u.Active - delta)
	}
}

// nextEvent is the smallest strictly positive timer. Zero timers do not block
// readiness, so a unit with both timers at zero sorts as if it had infinite
// time remaining.
func (u Unit) nextEvent() time.Duration {
	next := time.Duration(math.MaxInt64)
	if u.Active > 0 {
		next = u.Active
	}
	if u.Passive > 0 && u.Passive < next {
		next = u.Passive
	}
	return next
}

func clampTimer(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
