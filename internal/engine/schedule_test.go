package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualScheduler_FiresInOrder(t *testing.T) {
	s := NewManualScheduler()
	var order []string

	s.Every(300*time.Millisecond, func() { order = append(order, "slow") })
	s.Every(200*time.Millisecond, func() { order = append(order, "fast") })

	fired := s.Advance(600 * time.Millisecond)

	assert.Equal(t, 5, fired)
	assert.Equal(t, []string{"fast", "slow", "fast", "slow", "fast"}, order)
	assert.Equal(t, 600*time.Millisecond, s.Now())
}

func TestManualScheduler_NothingBeforeDue(t *testing.T) {
	s := NewManualScheduler()
	calls := 0
	s.Every(time.Second, func() { calls++ })

	assert.Equal(t, 0, s.Advance(999*time.Millisecond))
	assert.Equal(t, 1, s.Advance(time.Millisecond))
	assert.Equal(t, 1, calls)
}

func TestManualScheduler_Stop(t *testing.T) {
	s := NewManualScheduler()
	calls := 0
	timer := s.Every(time.Second, func() { calls++ })
	require.Equal(t, 1, s.Active())

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop is a no-op")
	assert.Equal(t, 0, s.Active())

	s.Advance(5 * time.Second)
	assert.Equal(t, 0, calls)
}

func TestManualScheduler_CallbackStopsItself(t *testing.T) {
	s := NewManualScheduler()
	calls := 0
	var timer Timer
	timer = s.Every(time.Second, func() {
		calls++
		if calls == 2 {
			timer.Stop()
		}
	})

	s.Advance(10 * time.Second)
	assert.Equal(t, 2, calls)
}

func TestManualScheduler_PanicsOnNonPositiveInterval(t *testing.T) {
	s := NewManualScheduler()
	assert.Panics(t, func() { s.Every(0, func() {}) })
}

func TestRealScheduler_TicksUntilStopped(t *testing.T) {
	var calls atomic.Int64
	timer := RealScheduler{}.Every(time.Millisecond, func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	// At most one in-flight callback may land after Stop.
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), after+1)
}
