package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	return State{
		Version:    Version,
		NowNS:      1_500_000_000,
		Seq:        2,
		SelectedID: "unit-2",
		Settings:   Settings{SeparateRecovery: true, ActionNS: 2e9, RecoveryNS: 4e9},
		Units: []Unit{
			{ID: "unit-1", Name: "Ada", Role: "Player", AddedAt: 1},
			{ID: "unit-2", Name: "Goblin", Role: "Enemy", AddedAt: 2, PassiveNS: 5e8},
		},
		Log: []LogEntry{
			{AtNS: 0, Message: "Enemy “Goblin” joined the battle."},
			{AtNS: 0, Message: "Player “Ada” joined the battle."},
		},
	}
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(sampleState())
	require.NoError(t, err)
	h2, err := Hash(sampleState())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHash_ChangesWithState(t *testing.T) {
	base, err := Hash(sampleState())
	require.NoError(t, err)

	changed := sampleState()
	changed.Units[1].PassiveNS = 0
	other, err := Hash(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestHash_DomainSeparated(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainState, data), hashWithDomain("other/v1", data))
}
