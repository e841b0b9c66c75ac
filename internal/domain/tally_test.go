package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTallyVotes(t *testing.T) {
	t.Run("unique winner", func(t *testing.T) {
		req := require.New(t)
		room := newTestRoom()
		room.ReplaceVote("alice", 0)
		room.ReplaceVote("bob", 0)
		room.ReplaceVote("carol", 1)

		tally := TallyVotes(room)
		req.Equal(map[string]int{"opt-pizza": 2, "opt-tacos": 1}, tally.Counts)
		req.Equal(2, tally.Max)
		req.Equal(3, tally.Total())
		winner, ok := tally.Winner()
		req.True(ok)
		req.Equal("opt-pizza", winner)
		req.False(tally.IsTie())
	})

	t.Run("tie keeps room order", func(t *testing.T) {
		req := require.New(t)
		room := newTestRoom()
		room.AddOption(NewOption("opt-sushi", "Sushi", "carol"))
		room.ReplaceVote("alice", 2)
		room.ReplaceVote("bob", 0)

		tally := TallyVotes(room)
		req.Equal([]string{"opt-pizza", "opt-sushi"}, tally.Tied)
		req.True(tally.IsTie())
		_, ok := tally.Winner()
		req.False(ok)
	})

	t.Run("nobody voted", func(t *testing.T) {
		req := require.New(t)
		tally := TallyVotes(newTestRoom())
		req.Equal(0, tally.Max)
		req.Equal([]string{"opt-pizza", "opt-tacos"}, tally.Tied)
		req.True(tally.IsTie())
	})

	t.Run("single option wins with zero votes", func(t *testing.T) {
		req := require.New(t)
		room := NewRoom("r", "AAAAAA", "t", "", "alice", newTestRoom().CreatedAt)
		room.AddOption(NewOption("only", "Only", "alice"))
		winner, ok := TallyVotes(room).Winner()
		req.True(ok)
		req.Equal("only", winner)
	})

	t.Run("no options", func(t *testing.T) {
		req := require.New(t)
		room := NewRoom("r", "AAAAAA", "t", "", "alice", newTestRoom().CreatedAt)
		tally := TallyVotes(room)
		req.Empty(tally.Tied)
		req.False(tally.IsTie())
	})
}
