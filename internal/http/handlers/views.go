package handlers

import (
	"time"

	"rps_arena/internal/domain"
)

// GameView is the public shape of a game. Revealed moves stay hidden until
// the game is settled so the opponent cannot react to them.
type GameView struct {
	ID                   domain.GameID        `json:"id"`
	Creator              domain.Identity      `json:"creator"`
	Challenger           *domain.Identity     `json:"challenger,omitempty"`
	Rounds               uint8                `json:"rounds"`
	StakePerRound        uint64               `json:"stake_per_round"`
	TotalPot             uint64               `json:"total_pot"`
	CreatorCommitment    domain.Commitment    `json:"creator_commitment"`
	ChallengerCommitment *domain.Commitment   `json:"challenger_commitment,omitempty"`
	CreatorRevealed      bool                 `json:"creator_revealed"`
	ChallengerRevealed   bool                 `json:"challenger_revealed"`
	CreatorMoves         []int                `json:"creator_moves,omitempty"`
	ChallengerMoves      []int                `json:"challenger_moves,omitempty"`
	Status               domain.GameStatus    `json:"status"`
	CreatedAt            time.Time            `json:"created_at"`
	JoinedAt             *time.Time           `json:"joined_at,omitempty"`
	RevealDeadline       *time.Time           `json:"reveal_deadline,omitempty"`
	SettledAt            *time.Time           `json:"settled_at,omitempty"`
	Winner               *domain.Identity     `json:"winner,omitempty"`
	RoundResults         []domain.RoundResult `json:"round_results,omitempty"`
	FeesCollected        uint64               `json:"fees_collected"`
	CreatorClaimed       bool                 `json:"creator_claimed"`
	ChallengerClaimed    bool                 `json:"challenger_claimed"`
	Stalled              bool                 `json:"stalled"`
}

func newGameView(g *domain.Game, now time.Time) GameView {
	v := GameView{
		ID:                   g.ID,
		Creator:              g.Creator,
		Challenger:           g.Challenger,
		Rounds:               g.Rounds,
		StakePerRound:        g.StakePerRound,
		TotalPot:             g.TotalPot,
		CreatorCommitment:    g.CreatorCommitment,
		ChallengerCommitment: g.ChallengerCommitment,
		CreatorRevealed:      g.CreatorMoves != nil,
		ChallengerRevealed:   g.ChallengerMoves != nil,
		Status:               g.Status,
		CreatedAt:            g.CreatedAt,
		JoinedAt:             g.JoinedAt,
		RevealDeadline:       g.RevealDeadline,
		SettledAt:            g.SettledAt,
		Winner:               g.Winner,
		RoundResults:         g.RoundResults,
		FeesCollected:        g.FeesCollected,
		CreatorClaimed:       g.CreatorClaimed,
		ChallengerClaimed:    g.ChallengerClaimed,
		Stalled:              g.Stalled(now),
	}
	if g.Status.Settled() {
		v.CreatorMoves = moveInts(g.CreatorMoves)
		v.ChallengerMoves = moveInts(g.ChallengerMoves)
	}
	return v
}

func newGameViews(games []*domain.Game, now time.Time) []GameView {
	out := make([]GameView, 0, len(games))
	for _, g := range games {
		out = append(out, newGameView(g, now))
	}
	return out
}

func moveInts(moves []domain.Move) []int {
	if moves == nil {
		return nil
	}
	out := make([]int, len(moves))
	for i, m := range moves {
		out[i] = int(m)
	}
	return out
}

// movesFromInts keeps out-of-range values as invalid moves so the
// lifecycle reports them in its own order of checks.
func movesFromInts(in []int) []domain.Move {
	out := make([]domain.Move, len(in))
	for i, v := range in {
		if v > 0 && v < 256 {
			out[i] = domain.Move(v)
		}
	}
	return out
}
