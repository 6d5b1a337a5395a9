package compiler

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/atb/internal/engine"
)

// Encounter is a compiled encounter file: the opening roster and the action
// settings of a battle.
type Encounter struct {
	Name     string
	Settings engine.Settings
	Units    []UnitSpec
}

// UnitSpec is one roster entry. Units join in file order.
type UnitSpec struct {
	Name       string
	Role       engine.Role
	Initiative int
}

var (
	encounterFields = []string{"name", "settings", "units"}
	settingsFields  = []string{"separate_recovery", "auto_advance", "action", "recovery"}
	unitFields      = []string{"name", "role", "initiative"}
)

// LoadEncounter reads, compiles and validates an encounter file. The file
// must declare a top-level `encounter` struct.
func LoadEncounter(path string) (*Encounter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encounter: %w", err)
	}
	return ParseEncounter(data, path)
}

// ParseEncounter compiles and validates encounter source. filename is used
// for error positions only.
func ParseEncounter(src []byte, filename string) (*Encounter, error) {
	enc, err := compileSource(src, filename)
	if err != nil {
		return nil, err
	}
	if errs := ValidateEncounter(enc); len(errs) > 0 {
		return nil, errs[0]
	}
	return enc, nil
}

func compileSource(src []byte, filename string) (*Encounter, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	encVal := v.LookupPath(cue.ParsePath("encounter"))
	if !encVal.Exists() {
		return nil, &CompileError{
			Field:   "encounter",
			Message: "encounter is required",
			Pos:     v.Pos(),
		}
	}

	return CompileEncounter(encVal)
}

// CompileEncounter parses a CUE value into an Encounter.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Omitted settings take the engine defaults; omitted roles are Player and
// omitted initiative is zero. Unknown fields are rejected.
func CompileEncounter(v cue.Value) (*Encounter, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkFields(v, "encounter", encounterFields); err != nil {
		return nil, err
	}

	enc := &Encounter{Settings: engine.DefaultSettings()}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		enc.Name = name
	}

	if setVal := v.LookupPath(cue.ParsePath("settings")); setVal.Exists() {
		if err := parseSettings(setVal, &enc.Settings); err != nil {
			return nil, err
		}
	}

	units, err := parseUnits(v)
	if err != nil {
		return nil, err
	}
	enc.Units = units

	return enc, nil
}

func parseSettings(v cue.Value, s *engine.Settings) error {
	if err := checkFields(v, "settings", settingsFields); err != nil {
		return err
	}

	if b, ok, err := lookupBool(v, "separate_recovery"); err != nil {
		return err
	} else if ok {
		s.SeparateRecovery = b
	}
	if b, ok, err := lookupBool(v, "auto_advance"); err != nil {
		return err
	} else if ok {
		s.AutoAdvance = b
	}

	for _, f := range []struct {
		name string
		dst  *time.Duration
	}{
		{"action", &s.Action},
		{"recovery", &s.Recovery},
	} {
		val := v.LookupPath(cue.ParsePath(f.name))
		if !val.Exists() {
			continue
		}
		secs, err := val.Float64()
		if err != nil {
			return formatCUEError(err)
		}
		if secs < 0 {
			return &CompileError{
				Field:   "settings." + f.name,
				Message: fmt.Sprintf("duration must be >= 0 seconds, got %v", secs),
				Pos:     val.Pos(),
			}
		}
		*f.dst = engine.Seconds(secs)
	}
	return nil
}

func parseUnits(v cue.Value) ([]UnitSpec, error) {
	unitsVal := v.LookupPath(cue.ParsePath("units"))
	if !unitsVal.Exists() {
		return nil, &CompileError{
			Field:   "units",
			Message: "units is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := unitsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	units := []UnitSpec{}
	for i := 0; iter.Next(); i++ {
		u, err := parseUnit(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func parseUnit(v cue.Value, i int) (UnitSpec, error) {
	field := fmt.Sprintf("units[%d]", i)
	if err := checkFields(v, field, unitFields); err != nil {
		return UnitSpec{}, err
	}

	u := UnitSpec{Role: engine.RolePlayer}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return UnitSpec{}, &CompileError{
			Field:   field + ".name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return UnitSpec{}, formatCUEError(err)
	}
	u.Name = name

	if roleVal := v.LookupPath(cue.ParsePath("role")); roleVal.Exists() {
		role, err := roleVal.String()
		if err != nil {
			return UnitSpec{}, formatCUEError(err)
		}
		switch strings.ToLower(strings.TrimSpace(role)) {
		case "player", "enemy":
			u.Role = engine.ParseRole(role)
		default:
			return UnitSpec{}, &CompileError{
				Field:   field + ".role",
				Message: fmt.Sprintf("role must be Player or Enemy, got %q", role),
				Pos:     roleVal.Pos(),
			}
		}
	}

	if initVal := v.LookupPath(cue.ParsePath("initiative")); initVal.Exists() {
		n, err := initVal.Int64()
		if err != nil {
			return UnitSpec{}, formatCUEError(err)
		}
		u.Initiative = int(n)
	}

	return u, nil
}

// checkFields rejects any regular field of v not listed in allowed.
func checkFields(v cue.Value, field string, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !slices.Contains(allowed, label) {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown field %q", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func lookupBool(v cue.Value, name string) (bool, bool, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return false, false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

// Apply configures e with the encounter settings and adds every unit in
// file order. Stops at the first rejected unit.
func (enc *Encounter) Apply(e *engine.Engine) error {
	e.Configure(enc.Settings)
	for _, u := range enc.Units {
		if _, err := e.AddUnit(u.Name, u.Role, u.Initiative); err != nil {
			return fmt.Errorf("apply encounter %q: unit %q: %w", enc.Name, u.Name, err)
		}
	}
	return nil
}
