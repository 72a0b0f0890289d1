package game

import (
	"testing"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		creator, challenger domain.Move
		want                domain.Side
	}{
		{1, 3, domain.SideCreator},
		{2, 1, domain.SideCreator},
		{3, 2, domain.SideCreator},
		{3, 1, domain.SideChallenger},
		{1, 2, domain.SideChallenger},
		{2, 3, domain.SideChallenger},
		{1, 1, domain.SideDraw},
		{2, 2, domain.SideDraw},
		{3, 3, domain.SideDraw},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, decide(tc.creator, tc.challenger), "decide(%d,%d)", tc.creator, tc.challenger)
	}
}

func TestResolveRounds(t *testing.T) {
	cases := []struct {
		name                string
		creator, challenger []domain.Move
		winner              domain.Side
		creatorWins         int
		challengerWins      int
	}{
		{"creator sweeps", moves(1, 2, 3), moves(3, 1, 2), domain.SideCreator, 3, 0},
		{"all draws", moves(1, 1, 1), moves(1, 1, 1), domain.SideDraw, 0, 0},
		{"challenger takes two of three", moves(1, 1, 2), moves(2, 2, 1), domain.SideChallenger, 1, 2},
		{"tied wins with a draw", moves(1, 2, 3), moves(3, 3, 3), domain.SideDraw, 1, 1},
		{"single round", moves(2), moves(3), domain.SideChallenger, 0, 1},
		{"five rounds", moves(1, 1, 1, 2, 3), moves(3, 3, 2, 2, 3), domain.SideCreator, 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ResolveRounds(tc.creator, tc.challenger)
			assert.Equal(t, tc.winner, res.Winner)
			assert.Equal(t, tc.creatorWins, res.CreatorWins)
			assert.Equal(t, tc.challengerWins, res.ChallengerWins)
			assert.Len(t, res.Results, len(tc.creator))
			for i, r := range res.Results {
				assert.Equal(t, tc.creator[i], r.CreatorMove)
				assert.Equal(t, tc.challenger[i], r.ChallengerMove)
			}
		})
	}
}
