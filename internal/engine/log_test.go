package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_PushNewestFirst(t *testing.T) {
	l := NewEventLog(3)
	for i := 0; i < 5; i++ {
		l.Push(LogEntry{At: time.Duration(i) * time.Second, Message: fmt.Sprint(i)})
	}

	got := l.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "4", got[0].Message)
	assert.Equal(t, "3", got[1].Message)
	assert.Equal(t, "2", got[2].Message)
	assert.Equal(t, 3, l.Capacity())
}

func TestEventLog_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultLogCapacity, NewEventLog(0).Capacity())
	assert.Equal(t, DefaultLogCapacity, NewEventLog(-1).Capacity())
}

func TestEventLog_EntriesIsCopy(t *testing.T) {
	l := NewEventLog(2)
	l.Push(LogEntry{Message: "a"})

	got := l.Entries()
	got[0].Message = "mutated"

	assert.Equal(t, "a", l.Entries()[0].Message)
}

func TestEventLog_ReplaceTruncates(t *testing.T) {
	l := NewEventLog(2)
	l.replace([]LogEntry{{Message: "new"}, {Message: "mid"}, {Message: "old"}})

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "new", l.Entries()[0].Message)

	l.Clear()
	assert.Equal(t, 0, l.Len())
}
