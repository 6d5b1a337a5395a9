// Package store persists ATB battles in SQLite.
//
// A database file holds at most one battle: the clock, settings, selection,
// roster and event log of an engine snapshot. Save replaces the stored
// battle in a single transaction, so a reader never observes half a battle.
//
// # Integrity
//
// Every saved battle carries the snapshot hash (RFC 8785 canonical JSON,
// SHA-256 with domain separation, see internal/snapshot). Load recomputes it
// and refuses rows that do not match.
//
// # Ordering
//
// Units and log entries are stored with an explicit position column and
// always read back ORDER BY position ASC. Nothing depends on rowid order or
// wall-clock time.
//
// # Format
//
// PRAGMA user_version holds the snapshot format version the file was
// written with. Open stamps new files and refuses files from a newer format.
//
// Connections run in WAL mode with synchronous=NORMAL, a 5 second busy
// timeout and foreign keys on.
package store
