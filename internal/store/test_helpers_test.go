package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/atb/internal/snapshot"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestState returns a small battle: two units, one mid-cast.
func createTestState() snapshot.State {
	return snapshot.State{
		Version: snapshot.Version,
		NowNS:   1_500_000_000,
		Seq:     2,
		Settings: snapshot.Settings{
			SeparateRecovery: true,
			ActionNS:         2_000_000_000,
			RecoveryNS:       4_000_000_000,
		},
		SelectedID: "unit-2",
		Units: []snapshot.Unit{
			{ID: "unit-1", Name: "Ada", Role: "Player", Initiative: 12, ActiveNS: 4_000_000_000, PassiveNS: 500_000_000, AddedAt: 1},
			{ID: "unit-2", Name: "Goblin", Role: "Enemy", AddedAt: 2},
		},
		Log: []snapshot.LogEntry{
			{AtNS: 0, Message: "Ada starts action (2s cast), recovery 4s."},
			{AtNS: 0, Message: "Enemy “Goblin” joined the battle."},
			{AtNS: 0, Message: "Player “Ada” joined the battle."},
		},
	}
}

func pragmaValue(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var value string
	require.NoError(t, db.QueryRow("PRAGMA "+name).Scan(&value), "PRAGMA %s", name)
	return value
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, "SELECT name FROM pragma_table_info(?)", table)
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	return queryNames(t, db, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
}

func queryNames(t *testing.T, db *sql.DB, query string, args ...any) []string {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
