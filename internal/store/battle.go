package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/atb/internal/snapshot"
)

// ErrHashMismatch is returned by Load when the stored rows do not hash to the
// recorded state hash.
var ErrHashMismatch = errors.New("stored battle does not match its state hash")

// Save replaces the stored battle with s in one transaction.
// Returns the state hash that was recorded.
func (s *Store) Save(ctx context.Context, st snapshot.State) (string, error) {
	hash, err := snapshot.Hash(st)
	if err != nil {
		return "", fmt.Errorf("save battle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save battle: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := clearTx(ctx, tx); err != nil {
		return "", fmt.Errorf("save battle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO battle
		(id, version, now_ns, seq, auto_advance, separate_recovery, action_ns, recovery_ns, selected_id, state_hash)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.Version,
		st.NowNS,
		st.Seq,
		st.Settings.AutoAdvance,
		st.Settings.SeparateRecovery,
		st.Settings.ActionNS,
		st.Settings.RecoveryNS,
		st.SelectedID,
		hash,
	)
	if err != nil {
		return "", fmt.Errorf("save battle: %w", err)
	}

	for i, u := range st.Units {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO units
			(position, id, name, role, initiative, active_ns, passive_ns, added_at, joined_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, i, u.ID, u.Name, u.Role, u.Initiative, u.ActiveNS, u.PassiveNS, u.AddedAt, u.JoinedNS)
		if err != nil {
			return "", fmt.Errorf("save unit %s: %w", u.ID, err)
		}
	}

	for i, e := range st.Log {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO log_entries (position, at_ns, message) VALUES (?, ?, ?)
		`, i, e.AtNS, e.Message)
		if err != nil {
			return "", fmt.Errorf("save log entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save battle: commit: %w", err)
	}
	return hash, nil
}

// Load reads the stored battle. The second result is false when the database
// holds no battle yet.
//
// Returns empty slices (not nil) for an empty roster or log.
func (s *Store) Load(ctx context.Context) (snapshot.State, bool, error) {
	var (
		st   snapshot.State
		hash string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, now_ns, seq, auto_advance, separate_recovery, action_ns, recovery_ns, selected_id, state_hash
		FROM battle WHERE id = 1
	`).Scan(
		&st.Version,
		&st.NowNS,
		&st.Seq,
		&st.Settings.AutoAdvance,
		&st.Settings.SeparateRecovery,
		&st.Settings.ActionNS,
		&st.Settings.RecoveryNS,
		&st.SelectedID,
		&hash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.State{}, false, nil
	}
	if err != nil {
		return snapshot.State{}, false, fmt.Errorf("load battle: %w", err)
	}

	if st.Units, err = s.readUnits(ctx); err != nil {
		return snapshot.State{}, false, err
	}
	if st.Log, err = s.readLog(ctx); err != nil {
		return snapshot.State{}, false, err
	}

	got, err := snapshot.Hash(st)
	if err != nil {
		return snapshot.State{}, false, fmt.Errorf("load battle: %w", err)
	}
	if got != hash {
		return snapshot.State{}, false, fmt.Errorf("load battle: %w (stored %s, computed %s)", ErrHashMismatch, hash, got)
	}
	return st, true, nil
}

// StateHash returns the hash recorded by the last Save, or "" if nothing is
// stored.
func (s *Store) StateHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT state_hash FROM battle WHERE id = 1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state hash: %w", err)
	}
	return hash, nil
}

// Reset deletes the stored battle.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset battle: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := clearTx(ctx, tx); err != nil {
		return fmt.Errorf("reset battle: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset battle: commit: %w", err)
	}
	return nil
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"log_entries", "units", "battle"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) readUnits(ctx context.Context) ([]snapshot.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, initiative, active_ns, passive_ns, added_at, joined_ns
		FROM units
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	units := []snapshot.Unit{}
	for rows.Next() {
		var u snapshot.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.Initiative, &u.ActiveNS, &u.PassiveNS, &u.AddedAt, &u.JoinedNS); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

func (s *Store) readLog(ctx context.Context) ([]snapshot.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT at_ns, message
		FROM log_entries
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	entries := []snapshot.LogEntry{}
	for rows.Next() {
		var e snapshot.LogEntry
		if err := rows.Scan(&e.AtNS, &e.Message); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}
