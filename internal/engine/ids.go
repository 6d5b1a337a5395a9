package engine

import (
	"github.com/google/uuid"
)

// IDGenerator produces unit ids.
// Implemented by UUIDv7Generator; tests use testutil.SequentialGenerator.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 unit ids.
//
// Ids are opaque to the scheduler; ordering always uses AddedAt.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
