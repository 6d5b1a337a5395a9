package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/atb/internal/compiler"
	"github.com/roach88/atb/internal/harness"
)

// FileValidation holds the validation result for one file.
type FileValidation struct {
	Path   string                     `json:"path"`
	Kind   string                     `json:"kind"` // "encounter" | "scenario"
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate encounter and scenario files",
		Long: `Validate CUE encounter files (.cue) and YAML scenarios (.yaml, .yml)
without running a battle.

Encounters are compiled and checked for empty or duplicate unit names,
negative initiative and negative durations. Scenarios are checked for
unknown fields, unknown commands and assertions, and their encounter
file is validated too.

Examples:
  atb validate ./ambush.cue
  atb validate ./scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("file not found: %s", path))
		}

		var fv FileValidation
		switch filepath.Ext(path) {
		case ".cue":
			formatter.VerboseLog("Validating encounter: %s", path)
			fv = validateEncounterFile(path)
		case ".yaml", ".yml":
			formatter.VerboseLog("Validating scenario: %s", path)
			fv = validateScenarioFile(path)
		default:
			return outputValidateError(formatter, ErrCodeGeneric,
				fmt.Sprintf("unsupported file type %q: expected .cue, .yaml or .yml", path))
		}

		result.Files = append(result.Files, fv)
		if !fv.Valid {
			result.Valid = false
		}
	}

	if formatter.Format == "json" {
		return outputValidationJSON(formatter, result)
	}
	return outputValidationText(formatter, result)
}

func validateEncounterFile(path string) FileValidation {
	errs := compiler.ValidateFile(path)
	return FileValidation{Path: path, Kind: "encounter", Valid: len(errs) == 0, Errors: errs}
}

// validateScenarioFile parses a scenario and, if it names an encounter,
// validates that file as part of the scenario.
func validateScenarioFile(path string) FileValidation {
	fv := FileValidation{Path: path, Kind: "scenario", Valid: true}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		fv.Valid = false
		fv.Errors = []compiler.ValidationError{{
			Field:   "scenario",
			Message: err.Error(),
			Code:    ErrCodeGeneric,
		}}
		return fv
	}

	if scenario.Encounter != "" {
		for _, e := range compiler.ValidateFile(scenario.Encounter) {
			e.Field = "encounter." + e.Field
			fv.Errors = append(fv.Errors, e)
		}
		fv.Valid = len(fv.Errors) == 0
	}
	return fv
}

// outputValidateError outputs a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_INVALID",
			Message: fmt.Sprintf("%d file(s) invalid", countInvalid(result)),
		}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", countInvalid(result)))
	}
	return nil
}

func outputValidationText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", fv.Path)
		for _, e := range fv.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "  line %d: %s %s: %s\n", e.Line, e.Code, e.Field, e.Message)
			} else {
				fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", countInvalid(result)))
	}
	return nil
}

func countInvalid(result ValidationResult) int {
	n := 0
	for _, fv := range result.Files {
		if !fv.Valid {
			n++
		}
	}
	return n
}
