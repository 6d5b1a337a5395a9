package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/atb/internal/testutil"
)

// newTestEngine builds an engine with sequential ids, a manual scheduler and
// a discarded log.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *ManualScheduler) {
	t.Helper()
	sched := NewManualScheduler()
	base := []Option{
		WithIDGenerator(testutil.NewSequentialGenerator("unit")),
		WithScheduler(sched),
		WithLogger(testutil.DiscardLogger()),
	}
	e := New(append(base, opts...)...)
	t.Cleanup(e.Stop)
	return e, sched
}

func mustAdd(t *testing.T, e *Engine, name string, role Role) Unit {
	t.Helper()
	u, err := e.AddUnit(name, role, 0)
	require.NoError(t, err)
	return u
}

func mustUnit(t *testing.T, e *Engine, id string) Unit {
	t.Helper()
	u, ok := e.Unit(id)
	require.True(t, ok, "unit %s should exist", id)
	return u
}

// settle drains queued events and pumps the scheduler until the engine is
// idle. Fails the test if the driver has not stopped within maxTicks.
func settle(t *testing.T, e *Engine, sched *ManualScheduler, maxTicks int) int {
	t.Helper()
	ticks := 0
	for {
		e.Drain()
		if !e.Advancing() {
			return ticks
		}
		require.Less(t, ticks, maxTicks, "driver did not stop")
		sched.Advance(e.Cadence())
		ticks++
	}
}

func secs(s float64) time.Duration {
	return Seconds(s)
}
