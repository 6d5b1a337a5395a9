package engine

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// AddUnit creates a ready unit (both timers at zero) and appends it to the
// roster. The name is trimmed and NFC normalized; an empty name is rejected.
// Negative initiative clamps to zero.
func (e *Engine) AddUnit(name string, role Role, initiative int) (Unit, error) {
	nm := norm.NFC.String(strings.TrimSpace(name))
	if nm == "" {
		return Unit{}, reject(ErrCodeEmptyName, "", "unit name is empty")
	}
	if role != RoleEnemy {
		role = RolePlayer
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u := Unit{
		ID:         e.ids.Generate(),
		Name:       nm,
		Role:       role,
		Initiative: max(initiative, 0),
		AddedAt:    e.clock.Next(),
		JoinedAt:   e.clock.Now(),
	}
	if !e.registry.Add(u) {
		return Unit{}, fmt.Errorf("add unit: duplicate id %q from id generator", u.ID)
	}
	e.pushLogLocked("%s “%s” joined the battle.", u.Role, u.Name)

	e.logger.Debug("unit added",
		"id", u.ID,
		"name", u.Name,
		"role", u.Role,
		"added_at", u.AddedAt,
	)
	e.afterMutationLocked()
	return u, nil
}

// RemoveUnit deletes a unit. Unknown ids are rejected without a log entry.
// Removing the last unit stops any auto-advance run.
func (e *Engine) RemoveUnit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.registry.Remove(id)
	if !ok {
		return reject(ErrCodeUnknownUnit, id, "no such unit")
	}
	if e.selected == id {
		e.selected = ""
	}
	e.pushLogLocked("%s “%s” was removed.", u.Role, u.Name)

	e.logger.Debug("unit removed", "id", u.ID, "name", u.Name)
	if e.registry.Len() == 0 {
		e.stopDriverLocked("roster empty")
	}
	e.afterMutationLocked()
	return nil
}

// ResetAll clears the roster, log and selection, returns the clock to zero,
// restores default durations and stops any auto-advance run. The mode flags
// are kept. Confirmation is the caller's responsibility.
func (e *Engine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopDriverLocked("reset")
	e.registry.Clear()
	e.clock.Reset()
	e.log.Clear()
	e.selected = ""
	e.settings.Action = DefaultActionDuration
	e.settings.Recovery = DefaultRecoveryDuration

	e.logger.Info("battle reset")
}

// Step advances simulated time by delta and drains every unit's timers.
// Non-positive deltas, and deltas that would overflow the clock, are
// rejected and leave every timer untouched.
//
// For each unit: a running cast (passive > 0) absorbs the whole step and the
// recovery timer does not move; otherwise the recovery timer drains. Both
// clamp at zero.
func (e *Engine) Step(delta time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if delta <= 0 {
		return reject(ErrCodeInvalidDelta, "", "step delta must be positive, got %s", delta)
	}
	if !e.stepLocked(delta) {
		return reject(ErrCodeInvalidDelta, "", "step of %s would overflow the clock (at %s)", delta, e.clock.Now())
	}
	e.afterMutationLocked()
	return nil
}

func (e *Engine) stepLocked(delta time.Duration) bool {
	if !e.clock.Advance(delta) {
		return false
	}
	e.registry.each(func(u *Unit) {
		u.drain(delta)
	})
	e.logger.Debug("clock stepped", "delta", delta, "now", e.clock.Now())
	return true
}

// Act starts an action for the current unit using the engine's settings.
// The settings are read in the same critical section that commits the action.
func (e *Engine) Act() (Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.applyActionLocked(ActionRequest{
		Action:           e.settings.Action,
		Recovery:         e.settings.Recovery,
		SeparateRecovery: e.settings.SeparateRecovery,
	})
}

// ApplyAction starts an action. The target must exist and be ready; an empty
// UnitID resolves to the current unit. On success the unit's passive timer is
// set to the cast duration and its active timer to the recovery duration
// (equal to the cast unless SeparateRecovery is set).
//
// If auto-advance is on, a follow-up check is queued; the driver never starts
// inside this call.
func (e *Engine) ApplyAction(req ActionRequest) (Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyActionLocked(req)
}

func (e *Engine) applyActionLocked(req ActionRequest) (Unit, error) {
	id := req.UnitID
	if id == "" {
		cur, ok := e.currentLocked()
		if !ok {
			return Unit{}, reject(ErrCodeNoTarget, "", "no unit is ready")
		}
		id = cur.ID
	}

	u, ok := e.registry.Get(id)
	if !ok {
		return Unit{}, reject(ErrCodeUnknownUnit, id, "no such unit")
	}
	if !u.Ready() {
		return Unit{}, reject(ErrCodeNotReady, id, "%s is %s", u.Name, u.Phase())
	}

	passive, active := req.timers()
	e.registry.Update(id, func(u *Unit) {
		u.Passive = passive
		u.Active = active
	})
	u.Passive, u.Active = passive, active

	if req.SeparateRecovery {
		e.pushLogLocked("%s starts action (%s cast), recovery %s.", u.Name, FormatSeconds(passive), FormatSeconds(active))
	} else {
		e.pushLogLocked("%s starts action for %s (recovery = %s).", u.Name, FormatSeconds(passive), FormatSeconds(active))
	}

	e.logger.Debug("action started",
		"id", u.ID,
		"passive", passive,
		"active", active,
		"separate_recovery", req.SeparateRecovery,
	)
	e.afterMutationLocked()
	return u, nil
}

// CancelCast forces the unit's passive timer to zero and leaves the active
// timer alone. Unknown ids are rejected without a log entry.
func (e *Engine) CancelCast(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var name string
	ok := e.registry.Update(id, func(u *Unit) {
		u.Passive = 0
		name = u.Name
	})
	if !ok {
		return reject(ErrCodeUnknownUnit, id, "no such unit")
	}
	e.pushLogLocked("%s cancels their action.", name)

	e.logger.Debug("cast cancelled", "id", id)
	e.afterMutationLocked()
	return nil
}

// SelectUnit marks a unit as the user's choice for the next action. The
// selection only takes effect while the unit is ready. Timers are untouched.
func (e *Engine) SelectUnit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.registry.Get(id); !ok {
		return reject(ErrCodeUnknownUnit, id, "no such unit")
	}
	e.selected = id
	return nil
}

// ClearSelection returns the choice of acting unit to the engine.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = ""
}

// SetAutoAdvance toggles auto-advance. Turning it off stops any run in
// flight, including one started by AdvanceToNextReady.
func (e *Engine) SetAutoAdvance(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings.AutoAdvance = on
	if !on {
		e.stopDriverLocked("auto-advance disabled")
		return
	}
	e.afterMutationLocked()
}

// SetSeparateRecovery toggles independent recovery durations.
func (e *Engine) SetSeparateRecovery(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.SeparateRecovery = on
}

// SetActionDuration sets the cast duration used by Act. Negative values
// clamp to zero.
func (e *Engine) SetActionDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Action = clampTimer(d)
}

// SetRecoveryDuration sets the recovery duration used by Act in separate
// recovery mode. Negative values clamp to zero.
func (e *Engine) SetRecoveryDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Recovery = clampTimer(d)
}

// ResetActionDefaults restores the 3s action and recovery durations.
func (e *Engine) ResetActionDefaults() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Action = DefaultActionDuration
	e.settings.Recovery = DefaultRecoveryDuration
}

// Configure replaces all settings at once.
func (e *Engine) Configure(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings = normalizeSettings(s)
	if !s.AutoAdvance {
		e.stopDriverLocked("auto-advance disabled")
		return
	}
	e.afterMutationLocked()
}

func normalizeSettings(s Settings) Settings {
	s.Action = clampTimer(s.Action)
	s.Recovery = clampTimer(s.Recovery)
	return s
}
