package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fourPlayers = []string{"alice", "bob", "carol", "dave"}

func TestGenerateFourPlayers(t *testing.T) {
	b, err := Generate(fourPlayers)
	require.NoError(t, err)
	require.Len(t, b.Rounds, 2)

	r1 := b.Rounds[0]
	require.Len(t, r1, 2)
	require.NotNil(t, r1[0].Player1)
	require.NotNil(t, r1[0].Player2)
	assert.Equal(t, "alice", *r1[0].Player1)
	assert.Equal(t, "bob", *r1[0].Player2)
	assert.Equal(t, "carol", *r1[1].Player1)
	assert.Equal(t, "dave", *r1[1].Player2)
	assert.Equal(t, "R1M1", r1[0].ID)
	assert.Equal(t, "R1M2", r1[1].ID)
	assert.Nil(t, r1[0].Winner)

	r2 := b.Rounds[1]
	require.Len(t, r2, 1)
	assert.Nil(t, r2[0].Player1)
	assert.Nil(t, r2[0].Player2)
	assert.Equal(t, "R1M1", r2[0].PrevMatch1)
	assert.Equal(t, "R1M2", r2[0].PrevMatch2)
}

func TestGenerateEightPlayers(t *testing.T) {
	players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	b, err := Generate(players)
	require.NoError(t, err)
	require.Len(t, b.Rounds, 3)
	assert.Len(t, b.Rounds[0], 4)
	assert.Len(t, b.Rounds[1], 2)
	assert.Len(t, b.Rounds[2], 1)
	assert.Equal(t, "R2M2", b.Rounds[1][1].ID)
	assert.Equal(t, "R1M3", b.Rounds[1][1].PrevMatch1)
	assert.Equal(t, "R1M4", b.Rounds[1][1].PrevMatch2)
}

func TestGenerateRejectsUnsupportedCounts(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 5, 6, 7, 9, 16} {
		players := make([]string, n)
		for i := range players {
			players[i] = "p"
		}
		_, err := Generate(players)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount, "count %d", n)
	}
}

func TestAdvanceFillsNextRoundSlots(t *testing.T) {
	b, err := Generate(fourPlayers)
	require.NoError(t, err)

	finished, err := b.Advance("R1M1", "bob")
	require.NoError(t, err)
	assert.False(t, finished)

	final := b.Rounds[1][0]
	require.NotNil(t, final.Player1)
	assert.Equal(t, "bob", *final.Player1, "first resolved sibling fills player1")
	assert.Nil(t, final.Player2)

	finished, err = b.Advance("R1M2", "carol")
	require.NoError(t, err)
	assert.False(t, finished)

	final = b.Rounds[1][0]
	require.NotNil(t, final.Player2)
	assert.Equal(t, "carol", *final.Player2, "second resolved sibling fills player2")
}

func TestAdvanceFinalRoundFinishesBracket(t *testing.T) {
	b, err := Generate(fourPlayers)
	require.NoError(t, err)

	_, err = b.Advance("R1M1", "alice")
	require.NoError(t, err)
	_, err = b.Advance("R1M2", "dave")
	require.NoError(t, err)

	finished, err := b.Advance("R2M1", "dave")
	require.NoError(t, err)
	assert.True(t, finished)

	winner, ok := b.FinalWinner()
	require.True(t, ok)
	assert.Equal(t, "dave", winner)
}

func TestAdvanceRejectsRepeats(t *testing.T) {
	b, err := Generate(fourPlayers)
	require.NoError(t, err)

	_, err = b.Advance("R1M1", "alice")
	require.NoError(t, err)

	before := b.Clone()
	_, err = b.Advance("R1M1", "bob")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, before, b.Clone(), "a rejected advance must leave the bracket unchanged")
}

func TestAdvanceValidations(t *testing.T) {
	b, err := Generate(fourPlayers)
	require.NoError(t, err)

	_, err = b.Advance("R9M9", "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = b.Advance("R1M1", "carol")
	assert.ErrorIs(t, err, ErrInvalidWinner, "winner must be one of the match's players")

	// Final has no players yet, so nobody can win it.
	_, err = b.Advance("R2M1", "alice")
	assert.ErrorIs(t, err, ErrInvalidWinner)
}
