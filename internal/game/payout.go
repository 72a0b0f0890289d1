package game

import (
	"math/bits"

	"rps_arena/internal/domain"
)

const DefaultFeePercent uint64 = 10

// Payout is the full distribution of a settled pot.
type Payout struct {
	Creator    uint64 `json:"creator"`
	Challenger uint64 `json:"challenger"`
	Fee        uint64 `json:"fee"`
	Treasury   uint64 `json:"treasury"`
	Burn       uint64 `json:"burn"`
}

// For returns the share owed to one side.
func (p Payout) For(side domain.Side) uint64 {
	switch side {
	case domain.SideCreator:
		return p.Creator
	case domain.SideChallenger:
		return p.Challenger
	}
	return 0
}

type PayoutCalculator struct {
	FeePercent uint64
}

func NewPayoutCalculator(feePercent uint64) PayoutCalculator {
	return PayoutCalculator{FeePercent: feePercent}
}

// Compute splits pot for the given winning side. SideDraw refunds half
// the pot to each side, any odd unit stays in escrow.
func (c PayoutCalculator) Compute(pot uint64, winner domain.Side) (Payout, error) {
	if winner == domain.SideDraw || winner == "" {
		half := pot / 2
		return Payout{Creator: half, Challenger: half}, nil
	}

	hi, lo := bits.Mul64(pot, c.FeePercent)
	if hi != 0 {
		return Payout{}, ErrArithmeticOverflow
	}
	fee := lo / 100
	treasury := fee / 2

	p := Payout{
		Fee:      fee,
		Treasury: treasury,
		Burn:     fee - treasury,
	}
	switch winner {
	case domain.SideCreator:
		p.Creator = pot - fee
	case domain.SideChallenger:
		p.Challenger = pot - fee
	}
	return p, nil
}

// ForGame computes the payout of a settled game from its recorded winner.
func (c PayoutCalculator) ForGame(g *domain.Game) (Payout, error) {
	winner := domain.SideDraw
	if g.Winner != nil {
		side, ok := g.SideOf(*g.Winner)
		if !ok {
			return Payout{}, ErrUnauthorized
		}
		winner = side
	}
	return c.Compute(g.TotalPot, winner)
}
