package game

import (
	"math"
	"testing"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutCompute(t *testing.T) {
	calc := NewPayoutCalculator(DefaultFeePercent)

	cases := []struct {
		name   string
		pot    uint64
		winner domain.Side
		want   Payout
	}{
		{"creator wins even pot", 1000, domain.SideCreator, Payout{Creator: 900, Fee: 100, Treasury: 50, Burn: 50}},
		{"creator wins odd pot", 999, domain.SideCreator, Payout{Creator: 900, Fee: 99, Treasury: 49, Burn: 50}},
		{"challenger wins", 1000, domain.SideChallenger, Payout{Challenger: 900, Fee: 100, Treasury: 50, Burn: 50}},
		{"draw odd pot", 999, domain.SideDraw, Payout{Creator: 499, Challenger: 499}},
		{"draw even pot", 1000, domain.SideDraw, Payout{Creator: 500, Challenger: 500}},
		{"tiny pot has no fee", 9, domain.SideCreator, Payout{Creator: 9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := calc.Compute(tc.pot, tc.winner)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, got.Creator+got.Challenger+got.Fee, tc.pot)
			assert.Equal(t, got.Fee, got.Treasury+got.Burn)
		})
	}
}

func TestPayoutOverflow(t *testing.T) {
	calc := NewPayoutCalculator(DefaultFeePercent)

	_, err := calc.Compute(math.MaxUint64, domain.SideCreator)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	// draws never multiply
	p, err := calc.Compute(math.MaxUint64, domain.SideDraw)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64/2), p.Creator)
}

func TestPayoutForGame(t *testing.T) {
	calc := NewPayoutCalculator(DefaultFeePercent)
	challenger := bob
	g := &domain.Game{Creator: alice, Challenger: &challenger, TotalPot: 1000, Winner: &challenger}

	p, err := calc.ForGame(g)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), p.For(domain.SideChallenger))
	assert.Zero(t, p.For(domain.SideCreator))

	g.Winner = nil
	p, err = calc.ForGame(g)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), p.For(domain.SideCreator))
}
