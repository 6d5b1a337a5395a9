package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want time.Duration
	}{
		{1, time.Second},
		{0.5, 500 * time.Millisecond},
		{2.25, 2250 * time.Millisecond},
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
		{9.3e9, time.Duration(math.MaxInt64)},
		{1e10, time.Duration(math.MaxInt64)},
		{1e300, time.Duration(math.MaxInt64)},
		{math.MaxFloat64, time.Duration(math.MaxInt64)},
		{9e9, 9e9 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Seconds(tt.in), "Seconds(%v)", tt.in)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0"},
		{3 * time.Second, "3s"},
		{2500 * time.Millisecond, "2.5s"},
		{2460 * time.Millisecond, "2.5s"},
		{100 * time.Millisecond, "0.1s"},
		{12 * time.Second, "12s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSeconds(tt.in), "FormatSeconds(%v)", tt.in)
	}
}

func TestLogEntry_String(t *testing.T) {
	assert.Equal(t, "[0.0s] hi", LogEntry{Message: "hi"}.String())
	assert.Equal(t, "[12.5s] hi", LogEntry{At: 12500 * time.Millisecond, Message: "hi"}.String())
}
