package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ambushEncounter = "../harness/testdata/encounters/ambush.cue"

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateValidFiles(t *testing.T) {
	out, err := executeValidate(t, "text",
		ambushEncounter,
		filepath.Join(harnessScenarios, "ada_acts.yaml"),
		filepath.Join(harnessScenarios, "encounter.yaml"),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+ambushEncounter)
	assert.Contains(t, out, "ada_acts.yaml")
	assert.NotContains(t, out, "✗")
}

func TestValidateInvalidEncounter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dupes.cue", `encounter: {
	units: [{name: "Ada"}, {name: "Ada", initiative: -1}]
}`)

	out, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, "E102 units[1].name")
	assert.Contains(t, out, "E103 units[1].initiative")
}

func TestValidateCompileErrorShowsLine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "typo.cue", `encounter: {
	units: [{name: "Ada"}]
	setings: {action: 2}
}`)

	out, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Contains(t, out, "line 3: E001 encounter")
	assert.Contains(t, out, `unknown field "setings"`)
}

func TestValidateScenarioWithBadEncounter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `encounter: { units: [{name: ""}] }`)
	path := writeFile(t, dir, "uses_bad.yaml", `name: uses_bad
encounter: bad.cue
steps:
  - do: advance
    expect: any
`)

	out, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Contains(t, out, "E101 encounter.units[0].name")
}

func TestValidateMalformedScenario(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "typo.yaml", "name: typo\nsteps:\n  - do: jump\n")

	out, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, "E001 scenario")
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.cue", `encounter: { units: [{name: " "}] }`)

	out, err := executeValidate(t, "json", ambushEncounter, bad)
	require.Error(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.False(t, response.Data.Valid)
	require.Len(t, response.Data.Files, 2)
	assert.True(t, response.Data.Files[0].Valid)
	assert.Equal(t, "encounter", response.Data.Files[0].Kind)
	assert.False(t, response.Data.Files[1].Valid)
	assert.Equal(t, "E101", response.Data.Files[1].Errors[0].Code)
	require.NotNil(t, response.Error)
	assert.Equal(t, "1 file(s) invalid", response.Error.Message)
}

func TestValidateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "notes.txt", "hello")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no args", nil, "requires at least 1 arg"},
		{"missing file", []string{filepath.Join(dir, "nope.cue")}, "file not found"},
		{"unsupported type", []string{txt}, "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeValidate(t, "text", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
