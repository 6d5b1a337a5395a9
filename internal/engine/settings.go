package engine

import "time"

// Default action and recovery durations.
const (
	DefaultActionDuration   = 3 * time.Second
	DefaultRecoveryDuration = 3 * time.Second
)

// Settings are the ambient inputs Act reads when building an ActionRequest.
type Settings struct {
	// AutoAdvance starts the driver whenever a change leaves nobody ready.
	AutoAdvance bool
	// SeparateRecovery makes the recovery duration independent of the cast.
	// When false, recovery equals the cast duration.
	SeparateRecovery bool
	Action           time.Duration
	Recovery         time.Duration
}

// DefaultSettings returns the settings of a fresh battle.
func DefaultSettings() Settings {
	return Settings{
		Action:   DefaultActionDuration,
		Recovery: DefaultRecoveryDuration,
	}
}

// ActionRequest describes one action start.
type ActionRequest struct {
	// UnitID is the acting unit. Empty resolves to the current unit.
	UnitID string
	// Action is the cast (passive) duration.
	Action time.Duration
	// Recovery is the active duration, used only with SeparateRecovery.
	Recovery time.Duration
	// SeparateRecovery selects an independent recovery duration.
	SeparateRecovery bool
}

// timers returns the (passive, active) values the request commits.
func (r ActionRequest) timers() (passive, active time.Duration) {
	passive = clampTimer(r.Action)
	active = passive
	if r.SeparateRecovery {
		active = clampTimer(r.Recovery)
	}
	return passive, active
}
