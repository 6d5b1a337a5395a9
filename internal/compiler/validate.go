package compiler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Validation error codes (E100-E199)
const (
	// ErrCompile reports a file that does not compile to an encounter.
	ErrCompile = "E001"

	// General validation errors (E100)
	ErrNilEncounter = "E100" // nothing to validate

	// Roster errors (E101-E109)
	ErrUnitNameEmpty      = "E101" // unit name is empty after trimming
	ErrDuplicateName      = "E102" // two units share a name
	ErrNegativeInitiative = "E103" // initiative below zero

	// Settings errors (E110-E119)
	ErrNegativeDuration = "E110" // action or recovery below zero
)

// ValidationError represents an encounter validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateEncounter checks the rules the engine would otherwise enforce one
// unit at a time. Returns all errors found (does not fail-fast).
//
// Unit names are compared after trimming and NFC normalization, the same way
// the engine stores them; scenarios and the REPL address units by name.
func ValidateEncounter(enc *Encounter) []ValidationError {
	if enc == nil {
		return []ValidationError{{
			Field:   "encounter",
			Message: "encounter is nil",
			Code:    ErrNilEncounter,
		}}
	}

	var errs []ValidationError

	if enc.Settings.Action < 0 {
		errs = append(errs, ValidationError{
			Field:   "settings.action",
			Message: "action duration must be >= 0",
			Code:    ErrNegativeDuration,
		})
	}
	if enc.Settings.Recovery < 0 {
		errs = append(errs, ValidationError{
			Field:   "settings.recovery",
			Message: "recovery duration must be >= 0",
			Code:    ErrNegativeDuration,
		})
	}

	seen := make(map[string]int)
	for i, u := range enc.Units {
		name := norm.NFC.String(strings.TrimSpace(u.Name))

		// E101: empty names would be rejected by the engine
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("units[%d].name", i),
				Message: "unit name is required and must be non-empty",
				Code:    ErrUnitNameEmpty,
			})
			continue
		}

		// E102: duplicate unit name
		if first, dup := seen[name]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("units[%d].name", i),
				Message: fmt.Sprintf("duplicate unit name %q (first declared at units[%d])", name, first),
				Code:    ErrDuplicateName,
			})
		} else {
			seen[name] = i
		}

		// E103: initiative must be non-negative
		if u.Initiative < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("units[%d].initiative", i),
				Message: fmt.Sprintf("initiative must be >= 0, got %d", u.Initiative),
				Code:    ErrNegativeInitiative,
			})
		}
	}

	return errs
}

// ValidateFile compiles an encounter file and returns every problem found.
// Compile failures yield a single ErrCompile error carrying the CUE line.
func ValidateFile(path string) []ValidationError {
	src, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{Field: "file", Message: err.Error(), Code: ErrCompile}}
	}

	enc, err := compileSource(src, path)
	if err != nil {
		ve := ValidationError{Field: "encounter", Message: err.Error(), Code: ErrCompile}
		var ce *CompileError
		if errors.As(err, &ce) {
			ve.Field = ce.Field
			ve.Message = ce.Message
			if ce.Pos.IsValid() {
				ve.Line = ce.Pos.Line()
			}
		}
		return []ValidationError{ve}
	}
	return ValidateEncounter(enc)
}
