package cli

import (
	"fmt"
	"io"

	"github.com/roach88/atb/internal/engine"
)

// UnitView is one roster row.
type UnitView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Initiative int     `json:"initiative"`
	Status     string  `json:"status"`
	Active     float64 `json:"active"`  // seconds of recovery left
	Passive    float64 `json:"passive"` // seconds of cast left
	Ready      bool    `json:"ready"`
	Current    bool    `json:"current"`
	Selected   bool    `json:"selected,omitempty"`
}

// BattleView is the printable state of a battle.
type BattleView struct {
	Now              float64    `json:"now"`
	Current          string     `json:"current,omitempty"`
	AutoAdvance      bool       `json:"auto_advance"`
	SeparateRecovery bool       `json:"separate_recovery"`
	Action           float64    `json:"action"`
	Recovery         float64    `json:"recovery"`
	Units            []UnitView `json:"units"`
	Log              []string   `json:"log,omitempty"`
}

// battleView captures the engine state. logLines limits the number of log
// entries included, newest first.
func battleView(e *engine.Engine, logLines int) BattleView {
	s := e.Settings()
	v := BattleView{
		Now:              e.Now().Seconds(),
		AutoAdvance:      s.AutoAdvance,
		SeparateRecovery: s.SeparateRecovery,
		Action:           s.Action.Seconds(),
		Recovery:         s.Recovery.Seconds(),
		Units:            []UnitView{},
	}

	current, hasCurrent := e.CurrentUnit()
	if hasCurrent {
		v.Current = current.Name
	}
	selected := e.SelectedID()

	for _, u := range e.SortedRoster() {
		v.Units = append(v.Units, UnitView{
			ID:         u.ID,
			Name:       u.Name,
			Role:       string(u.Role),
			Initiative: u.Initiative,
			Status:     u.Status(),
			Active:     u.Active.Seconds(),
			Passive:    u.Passive.Seconds(),
			Ready:      u.Ready(),
			Current:    hasCurrent && u.ID == current.ID,
			Selected:   u.ID == selected,
		})
	}

	v.Log = logLinesOf(e, logLines)
	return v
}

func logLinesOf(e *engine.Engine, n int) []string {
	entries := e.Log()
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = entry.String()
	}
	return lines
}

// writeBattle renders a BattleView as text.
func writeBattle(w io.Writer, v BattleView) {
	fmt.Fprintf(w, "Time: %.1fs\n", v.Now)
	if v.Current != "" {
		fmt.Fprintf(w, "Current: %s\n", v.Current)
	} else {
		fmt.Fprintln(w, "Current: (none)")
	}

	recovery := "same as action"
	if v.SeparateRecovery {
		recovery = fmt.Sprintf("%gs", v.Recovery)
	}
	fmt.Fprintf(w, "Action: %gs  Recovery: %s  Auto-advance: %s\n", v.Action, recovery, onOff(v.AutoAdvance))
	fmt.Fprintln(w)

	if len(v.Units) == 0 {
		fmt.Fprintln(w, "No units.")
	}
	for _, u := range v.Units {
		marker := " "
		switch {
		case u.Current:
			marker = ">"
		case u.Selected:
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-16s %-6s %3d  %s\n", marker, u.Name, u.Role, u.Initiative, u.Status)
	}

	if len(v.Log) > 0 {
		fmt.Fprintln(w)
		writeLog(w, v.Log)
	}
}

func writeLog(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
