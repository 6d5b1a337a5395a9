package snapshot

// Version is the current snapshot format version.
const Version = 1

// State is the complete persisted battle.
type State struct {
	Version    int        `json:"version"`
	NowNS      int64      `json:"now_ns"`
	Seq        int64      `json:"seq"`
	Settings   Settings   `json:"settings"`
	SelectedID string     `json:"selected_id,omitempty"`
	Units      []Unit     `json:"units"`
	Log        []LogEntry `json:"log"`
}

// Unit is one combatant. Units are kept in roster (insertion) order.
type Unit struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Initiative int64  `json:"initiative"`
	ActiveNS   int64  `json:"active_ns"`
	PassiveNS  int64  `json:"passive_ns"`
	AddedAt    int64  `json:"added_at"`
	JoinedNS   int64  `json:"joined_ns"`
}

// Settings holds the action durations and mode flags.
type Settings struct {
	AutoAdvance      bool  `json:"auto_advance"`
	SeparateRecovery bool  `json:"separate_recovery"`
	ActionNS         int64 `json:"action_ns"`
	RecoveryNS       int64 `json:"recovery_ns"`
}

// LogEntry is one event log line. Log slices are most-recent-first.
type LogEntry struct {
	AtNS    int64  `json:"at_ns"`
	Message string `json:"message"`
}

// ToMap converts the state to the generic form accepted by MarshalCanonical.
func (s State) ToMap() map[string]any {
	units := make([]any, len(s.Units))
	for i, u := range s.Units {
		units[i] = u.ToMap()
	}
	log := make([]any, len(s.Log))
	for i, e := range s.Log {
		log[i] = map[string]any{
			"at_ns":   e.AtNS,
			"message": e.Message,
		}
	}

	m := map[string]any{
		"version":  int64(s.Version),
		"now_ns":   s.NowNS,
		"seq":      s.Seq,
		"settings": s.Settings.ToMap(),
		"units":    units,
		"log":      log,
	}
	if s.SelectedID != "" {
		m["selected_id"] = s.SelectedID
	}
	return m
}

// ToMap converts the unit to a generic map.
func (u Unit) ToMap() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"role":       u.Role,
		"initiative": u.Initiative,
		"active_ns":  u.ActiveNS,
		"passive_ns": u.PassiveNS,
		"added_at":   u.AddedAt,
		"joined_ns":  u.JoinedNS,
	}
}

// ToMap converts the settings to a generic map.
func (s Settings) ToMap() map[string]any {
	return map[string]any{
		"auto_advance":      s.AutoAdvance,
		"separate_recovery": s.SeparateRecovery,
		"action_ns":         s.ActionNS,
		"recovery_ns":       s.RecoveryNS,
	}
}
