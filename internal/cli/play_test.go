package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/atb/internal/engine"
	"github.com/roach88/atb/internal/snapshot"
	"github.com/roach88/atb/internal/store"
	"github.com/roach88/atb/internal/testutil"
)

// executePlay runs one play session with deterministic ids and a manual
// scheduler, feeding input as stdin.
func executePlay(t *testing.T, format, db, input string, args ...string) (string, error) {
	t.Helper()
	opts := &PlayOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: testutil.NewSequentialGenerator("unit"),
		Scheduler:   engine.NewManualScheduler(),
	}
	out := &bytes.Buffer{}
	cmd := newPlayCommand(opts)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func loadBattle(t *testing.T, db string) snapshot.State {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	state, found, err := st.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found, "battle should be saved")
	return state
}

func TestPlay_Session(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, strings.Join([]string{
		"add Ada",
		"add Goblin enemy 8",
		"act",
		"step 1",
		"roster",
		"quit",
	}, "\n"))
	require.NoError(t, err)

	assert.Contains(t, out, "Added Player Ada.")
	assert.Contains(t, out, "Added Enemy Goblin.")
	assert.Contains(t, out, "Ada: Casting… resolves in 3s, resting for 3s")
	assert.Contains(t, out, "Time is 1.0s.")
	assert.Contains(t, out, "Current: Goblin")
	assert.Contains(t, out, "Casting… resolves in 2s, resting for 3s")

	state := loadBattle(t, db)
	assert.Equal(t, int64(time.Second), state.NowNS)
	require.Len(t, state.Units, 2)
	assert.Equal(t, "Ada", state.Units[0].Name)
	assert.Equal(t, int64(2*time.Second), state.Units[0].PassiveNS)
	assert.Equal(t, int64(3*time.Second), state.Units[0].ActiveNS)
	assert.Equal(t, "Enemy", state.Units[1].Role)
	assert.Equal(t, int64(8), state.Units[1].Initiative)
	assert.Len(t, state.Log, 3)
}

func TestPlay_ResumesStoredBattle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	_, err := executePlay(t, "text", db, "add Ada\nact\nstep 1\nquit\n")
	require.NoError(t, err)

	out, err := executePlay(t, "text", db, "act Ada\nstep 2\nact Ada\nquit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Error [NOT_READY]")
	assert.Contains(t, out, "Time is 3.0s.")

	state := loadBattle(t, db)
	assert.Equal(t, int64(3*time.Second), state.NowNS)
	require.Len(t, state.Units, 1)
	assert.Equal(t, int64(0), state.Units[0].PassiveNS)
	assert.Equal(t, int64(3*time.Second), state.Units[0].ActiveNS)
}

func TestPlay_RejectionsAndUsageErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	tests := []struct {
		input string
		want  string
	}{
		{"act", "Error [NO_TARGET]"},
		{"advance", "Error [ROSTER_EMPTY]"},
		{"add   ", "Error [E005]: add: missing unit name"},
		{"step 0", "Error [INVALID_DELTA]"},
		{"step abc", `step: "abc" is not a number`},
		{"remove Nobody", `remove: no unit named "Nobody"`},
		{"auto maybe", "auto: expected on or off"},
		{"log -1", `log: "-1" is not a count`},
		{"frobnicate", `unknown command "frobnicate"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := executePlay(t, "text", db, tt.input+"\nquit\n")
			require.NoError(t, err, "rejections must not end the session")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestPlay_HugeDurations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, strings.Join([]string{
		"step 9e9",
		"step 9e9",
		"action 1e10",
		"add Ada",
		"act",
		"quit",
	}, "\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Error [INVALID_DELTA]")
	assert.Contains(t, out, "Action duration 9223372036.9s.")

	state := loadBattle(t, db)
	assert.Equal(t, int64(9e9*time.Second), state.NowNS, "clock never wraps")
	assert.Equal(t, int64(math.MaxInt64), state.Settings.ActionNS)
	require.Len(t, state.Units, 1)
	assert.Equal(t, int64(math.MaxInt64), state.Units[0].PassiveNS, "huge cast is not instant")
}

func TestPlay_Settings(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, strings.Join([]string{
		"separate on",
		"action 2",
		"recovery 4.5",
		"add Ada",
		"act",
		"quit",
	}, "\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Separate recovery on.")
	assert.Contains(t, out, "Action duration 2s.")
	assert.Contains(t, out, "Recovery duration 4.5s.")

	state := loadBattle(t, db)
	assert.True(t, state.Settings.SeparateRecovery)
	assert.Equal(t, int64(2*time.Second), state.Settings.ActionNS)
	assert.Equal(t, int64(4500*time.Millisecond), state.Settings.RecoveryNS)
	assert.Equal(t, int64(4500*time.Millisecond), state.Units[0].ActiveNS)
	assert.Equal(t, "Ada starts action (2s cast), recovery 4.5s.", state.Log[0].Message)

	_, err = executePlay(t, "text", db, "defaults\nauto on\nquit\n")
	require.NoError(t, err)
	state = loadBattle(t, db)
	assert.Equal(t, int64(3*time.Second), state.Settings.ActionNS)
	assert.Equal(t, int64(3*time.Second), state.Settings.RecoveryNS)
	assert.True(t, state.Settings.AutoAdvance)
	assert.True(t, state.Settings.SeparateRecovery)
}

func TestPlay_SelectAndCancel(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, strings.Join([]string{
		"add Ada",
		"add Bo",
		"select Bo",
		"act",
		"cancel Bo",
		"quit",
	}, "\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Selected Bo.")
	assert.Contains(t, out, "Bo: Casting… resolves in 3s, resting for 3s")
	assert.Contains(t, out, "Bo cancelled.")

	state := loadBattle(t, db)
	assert.Equal(t, "unit-2", state.SelectedID)
	assert.Equal(t, int64(0), state.Units[1].PassiveNS)
	assert.Equal(t, int64(3*time.Second), state.Units[1].ActiveNS)
	assert.Equal(t, "Bo cancels their action.", state.Log[0].Message)
}

func TestPlay_ResetAsksForConfirmation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, strings.Join([]string{
		"add Ada",
		"reset",
		"no",
		"reset",
		"yes",
		"quit",
	}, "\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cancelled.")
	assert.Contains(t, out, "Battle reset.")

	state := loadBattle(t, db)
	assert.Empty(t, state.Units)
	assert.Empty(t, state.Log)
	assert.Equal(t, int64(0), state.NowNS)
}

func TestPlay_Encounter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, "roster\n", "--encounter", ambushEncounter)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Recovery: 4s")

	state := loadBattle(t, db)
	require.Len(t, state.Units, 3)
	assert.True(t, state.Settings.SeparateRecovery)

	// The stored battle wins over the encounter on later runs.
	_, err = executePlay(t, "text", db, "remove Bram\nquit\n", "--encounter", ambushEncounter)
	require.NoError(t, err)
	assert.Len(t, loadBattle(t, db).Units, 2)
}

func TestPlay_BadEncounter(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.cue", `encounter: { units: [{name: "Ada"}, {name: "Ada"}] }`)

	_, err := executePlay(t, "text", filepath.Join(dir, "battle.db"), "quit\n", "--encounter", bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load encounter")
}

func TestPlay_LogCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "text", db, "add Ada\nadd Bo\nlog 1\nquit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "[0.0s] Player “Bo” joined the battle.")
	assert.NotContains(t, out, "“Ada” joined")
}

func TestPlay_EOFSaves(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	_, err := executePlay(t, "text", db, "add Ada")
	require.NoError(t, err)
	assert.Len(t, loadBattle(t, db).Units, 1)
}

func TestPlay_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "battle.db")

	out, err := executePlay(t, "json", db, "add Ada\nact\nact\nroster\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "atb>")

	dec := json.NewDecoder(strings.NewReader(out))
	var responses []CLIResponse
	for dec.More() {
		var r CLIResponse
		require.NoError(t, dec.Decode(&r))
		responses = append(responses, r)
	}
	require.Len(t, responses, 4)
	assert.Equal(t, "ok", responses[0].Status)
	assert.Equal(t, "error", responses[2].Status)
	assert.Equal(t, "NO_TARGET", responses[2].Error.Code)

	data, ok := responses[3].Data.(map[string]any)
	require.True(t, ok)
	battle, ok := data["battle"].(map[string]any)
	require.True(t, ok)
	units := battle["units"].([]any)
	require.Len(t, units, 1)
	assert.Equal(t, "Ada", units[0].(map[string]any)["name"])
}

func TestPlay_RequiresDB(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestParseAddArgs(t *testing.T) {
	tests := []struct {
		args       []string
		name       string
		role       engine.Role
		initiative int
	}{
		{[]string{"Ada"}, "Ada", engine.RolePlayer, 0},
		{[]string{"Goblin", "enemy"}, "Goblin", engine.RoleEnemy, 0},
		{[]string{"Goblin", "Enemy", "8"}, "Goblin", engine.RoleEnemy, 8},
		{[]string{"Ada", "12"}, "Ada", engine.RolePlayer, 12},
		{[]string{"Goblin", "Chief", "enemy", "-3"}, "Goblin Chief", engine.RoleEnemy, 0},
		{[]string{"12"}, "12", engine.RolePlayer, 0},
		{[]string{"Enemy"}, "Enemy", engine.RolePlayer, 0},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			name, role, initiative, err := parseAddArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.role, role)
			assert.Equal(t, tt.initiative, initiative)
		})
	}

	_, _, _, err := parseAddArgs(nil)
	require.Error(t, err)
}
