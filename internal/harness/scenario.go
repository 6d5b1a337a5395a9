package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/atb/internal/engine"
)

// Scenario defines a battle test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Encounter is an optional CUE encounter applied before the first step.
	// Relative paths are resolved against the scenario file's directory.
	Encounter string `yaml:"encounter,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final battle.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one command. Which fields apply depends on Do.
type Step struct {
	// Do is the command name, one of the Cmd constants.
	Do string `yaml:"do"`

	// Unit names the target unit (add, remove, cancel, select, act).
	Unit string `yaml:"unit,omitempty"`

	// Role and Initiative are used by add.
	Role       string `yaml:"role,omitempty"`
	Initiative int    `yaml:"initiative,omitempty"`

	// Seconds is the step delta.
	Seconds float64 `yaml:"seconds,omitempty"`

	// Optional settings (set) or per-action overrides (act).
	AutoAdvance      *bool    `yaml:"auto_advance,omitempty"`
	SeparateRecovery *bool    `yaml:"separate_recovery,omitempty"`
	Action           *float64 `yaml:"action,omitempty"`
	Recovery         *float64 `yaml:"recovery,omitempty"`

	// Expect is ok (default), rejected, or any.
	Expect string `yaml:"expect,omitempty"`

	// Code is the expected rejection code when Expect is rejected.
	Code string `yaml:"code,omitempty"`
}

// Command names.
const (
	CmdAdd           = "add"
	CmdRemove        = "remove"
	CmdStep          = "step"
	CmdAdvance       = "advance"
	CmdAct           = "act"
	CmdCancel        = "cancel"
	CmdSelect        = "select"
	CmdSet           = "set"
	CmdResetDefaults = "reset_defaults"
	CmdReset         = "reset"
)

// Expectation values.
const (
	ExpectOK       = "ok"
	ExpectRejected = "rejected"
	ExpectAny      = "any"
)

// Assertion validates the final battle.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert constants.
	Type string `yaml:"type"`

	// Seconds is the expected clock (now).
	Seconds float64 `yaml:"seconds,omitempty"`

	// Unit names a unit (current, timers).
	Unit string `yaml:"unit,omitempty"`

	// Units is an expected list of names (ready, roster_order).
	Units []string `yaml:"units,omitempty"`

	// Active and Passive are expected timer values in seconds (timers).
	Active  *float64 `yaml:"active,omitempty"`
	Passive *float64 `yaml:"passive,omitempty"`

	// Message is a log substring (log_contains, log_count).
	Message string `yaml:"message,omitempty"`

	// Messages are log substrings in chronological order (log_order).
	Messages []string `yaml:"messages,omitempty"`

	// Count is the expected number of log entries (log_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertNow         = "now"
	AssertReady       = "ready"
	AssertCurrent     = "current"
	AssertTimers      = "timers"
	AssertRosterOrder = "roster_order"
	AssertLogContains = "log_contains"
	AssertLogOrder    = "log_order"
	AssertLogCount    = "log_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative encounter path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Encounter != "" && !filepath.IsAbs(scenario.Encounter) {
		scenario.Encounter = filepath.Join(filepath.Dir(path), scenario.Encounter)
	}
	if scenario.Encounter != "" {
		if _, err := os.Stat(scenario.Encounter); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: encounter file not found: %s", scenario.Encounter)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Encounter paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 && s.Encounter == "" {
		return fmt.Errorf("steps list is required unless an encounter is given")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its command.
func validateStep(index int, st *Step) error {
	switch st.Do {
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	case CmdAdd, CmdRemove, CmdCancel, CmdSelect:
		if st.Unit == "" {
			return fmt.Errorf("steps[%d]: unit is required for %s", index, st.Do)
		}
	case CmdStep:
		if st.Seconds == 0 && st.Expect != ExpectRejected && st.Expect != ExpectAny {
			return fmt.Errorf("steps[%d]: seconds is required for step", index)
		}
	case CmdAdvance, CmdAct, CmdSet, CmdResetDefaults, CmdReset:
	default:
		return fmt.Errorf("steps[%d]: unknown command %q", index, st.Do)
	}

	switch st.Expect {
	case "", ExpectOK, ExpectAny:
		if st.Code != "" {
			return fmt.Errorf("steps[%d]: code requires expect: rejected", index)
		}
	case ExpectRejected:
	default:
		return fmt.Errorf("steps[%d]: expect must be ok, rejected or any, got %q", index, st.Expect)
	}

	if st.Code != "" {
		switch engine.RejectionCode(st.Code) {
		case engine.ErrCodeEmptyName, engine.ErrCodeInvalidDelta, engine.ErrCodeNoTarget,
			engine.ErrCodeUnknownUnit, engine.ErrCodeNotReady, engine.ErrCodeRosterEmpty,
			engine.ErrCodeAlreadyAdvancing, engine.ErrCodeAlreadyReady:
		default:
			return fmt.Errorf("steps[%d]: unknown rejection code %q", index, st.Code)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNow, AssertReady, AssertCurrent, AssertRosterOrder:
	case AssertTimers:
		if a.Unit == "" {
			return fmt.Errorf("assertions[%d]: unit is required for timers", index)
		}
		if a.Active == nil && a.Passive == nil {
			return fmt.Errorf("assertions[%d]: active or passive is required for timers", index)
		}
	case AssertLogContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for log_contains", index)
		}
	case AssertLogOrder:
		if len(a.Messages) == 0 {
			return fmt.Errorf("assertions[%d]: messages list is required for log_order", index)
		}
	case AssertLogCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
