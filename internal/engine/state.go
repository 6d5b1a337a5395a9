package engine

import (
	"fmt"
	"time"

	"github.com/roach88/atb/internal/snapshot"
)

// Snapshot captures the full engine state for persistence.
func (e *Engine) Snapshot() snapshot.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	units := e.registry.List()
	su := make([]snapshot.Unit, len(units))
	for i, u := range units {
		su[i] = snapshot.Unit{
			ID:         u.ID,
			Name:       u.Name,
			Role:       string(u.Role),
			Initiative: int64(u.Initiative),
			ActiveNS:   int64(u.Active),
			PassiveNS:  int64(u.Passive),
			AddedAt:    u.AddedAt,
			JoinedNS:   int64(u.JoinedAt),
		}
	}

	entries := e.log.Entries()
	sl := make([]snapshot.LogEntry, len(entries))
	for i, le := range entries {
		sl[i] = snapshot.LogEntry{AtNS: int64(le.At), Message: le.Message}
	}

	return snapshot.State{
		Version: snapshot.Version,
		NowNS:   int64(e.clock.Now()),
		Seq:     e.clock.Seq(),
		Settings: snapshot.Settings{
			AutoAdvance:      e.settings.AutoAdvance,
			SeparateRecovery: e.settings.SeparateRecovery,
			ActionNS:         int64(e.settings.Action),
			RecoveryNS:       int64(e.settings.Recovery),
		},
		SelectedID: e.selected,
		Units:      su,
		Log:        sl,
	}
}

// Restore replaces the engine state with a snapshot. Any auto-advance run is
// stopped first. Returns an error, leaving the engine untouched, if the
// snapshot is malformed.
func (e *Engine) Restore(s snapshot.State) error {
	if s.Version != snapshot.Version {
		return fmt.Errorf("restore: unsupported snapshot version %d", s.Version)
	}
	if s.NowNS < 0 {
		return fmt.Errorf("restore: negative clock %d", s.NowNS)
	}

	reg := NewRegistry()
	seq := s.Seq
	for _, su := range s.Units {
		if su.ID == "" {
			return fmt.Errorf("restore: unit with empty id")
		}
		u := Unit{
			ID:         su.ID,
			Name:       su.Name,
			Role:       ParseRole(su.Role),
			Initiative: int(max(su.Initiative, 0)),
			Active:     clampTimer(time.Duration(su.ActiveNS)),
			Passive:    clampTimer(time.Duration(su.PassiveNS)),
			AddedAt:    su.AddedAt,
			JoinedAt:   time.Duration(su.JoinedNS),
		}
		if !reg.Add(u) {
			return fmt.Errorf("restore: duplicate unit id %q", su.ID)
		}
		seq = max(seq, su.AddedAt)
	}

	entries := make([]LogEntry, len(s.Log))
	for i, le := range s.Log {
		entries[i] = LogEntry{At: time.Duration(le.AtNS), Message: le.Message}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopDriverLocked("restore")
	e.registry = reg
	e.clock = NewClockAt(time.Duration(s.NowNS), seq)
	e.settings = normalizeSettings(Settings{
		AutoAdvance:      s.Settings.AutoAdvance,
		SeparateRecovery: s.Settings.SeparateRecovery,
		Action:           time.Duration(s.Settings.ActionNS),
		Recovery:         time.Duration(s.Settings.RecoveryNS),
	})
	e.selected = ""
	if _, ok := reg.Get(s.SelectedID); ok {
		e.selected = s.SelectedID
	}
	e.log.replace(entries)

	e.logger.Info("state restored",
		"units", reg.Len(),
		"now", e.clock.Now(),
	)
	e.afterMutationLocked()
	return nil
}
