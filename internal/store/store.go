package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/atb/internal/snapshot"
)

//go:embed schema.sql
var schemaSQL string

// ErrNewerFormat is returned by Open when the file was written by a build
// with a newer snapshot format than this one understands.
var ErrNewerFormat = errors.New("battle file uses a newer format")

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Store holds one battle in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the battle file at path, creating it when missing.
//
// PRAGMA user_version records the snapshot format the file was written
// with. A fresh file is stamped with snapshot.Version; a file stamped with
// a later version is refused with ErrNewerFormat rather than read with the
// wrong layout.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: SQLite has a single writer and the battle is small.
	db.SetMaxOpenConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	var format int
	if err := db.QueryRow("PRAGMA user_version").Scan(&format); err != nil {
		return fmt.Errorf("read format: %w", err)
	}
	if format > snapshot.Version {
		return fmt.Errorf("%w: file is v%d, this build reads v%d", ErrNewerFormat, format, snapshot.Version)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if format == snapshot.Version {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", snapshot.Version)); err != nil {
		return fmt.Errorf("stamp format: %w", err)
	}
	return nil
}

// Close releases the database. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}
