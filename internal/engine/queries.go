package engine

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Now returns the simulated elapsed time.
func (e *Engine) Now() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now()
}

// Units returns every unit in roster (insertion) order.
func (e *Engine) Units() []Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.List()
}

// Unit returns the unit with the given id.
func (e *Engine) Unit(id string) (Unit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(id)
}

// FindUnit returns the earliest-added unit with the given name.
func (e *Engine) FindUnit(name string) (Unit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.FindByName(norm.NFC.String(strings.TrimSpace(name)))
}

// SortedRoster returns the roster in display order.
func (e *Engine) SortedRoster() []Unit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SortRoster(e.registry.List())
}

// ReadyIDs returns the ids of all ready units in roster order.
func (e *Engine) ReadyIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ReadyIDs(e.registry.List())
}

// CurrentID returns the engine's pick: the earliest-added ready unit,
// ignoring the user's selection.
func (e *Engine) CurrentID() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CurrentID(e.registry.List())
}

// CurrentUnit returns the unit the next Act applies to: the selected unit
// while it is ready, otherwise the engine's pick.
func (e *Engine) CurrentUnit() (Unit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

func (e *Engine) currentLocked() (Unit, bool) {
	if e.selected != "" {
		if u, ok := e.registry.Get(e.selected); ok && u.Ready() {
			return u, true
		}
	}
	id, ok := CurrentID(e.registry.List())
	if !ok {
		return Unit{}, false
	}
	return e.registry.Get(id)
}

// SelectedID returns the user's selection, or "" if none.
func (e *Engine) SelectedID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Log returns the event log, newest first.
func (e *Engine) Log() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Entries()
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Advancing reports whether an auto-advance run is in flight.
func (e *Engine) Advancing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drv.running
}

// Cadence returns the real-time interval between auto-advance ticks.
func (e *Engine) Cadence() time.Duration {
	return e.cadence
}
