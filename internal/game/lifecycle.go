package game

import (
	"context"
	"math/bits"
	"time"

	"rps_arena/internal/domain"
)

// Lifecycle drives a Game through its states. It holds no locks: callers
// run each operation inside one atomic unit of work and discard the
// record when an error is returned.
type Lifecycle struct {
	clock    Clock
	settings Settings
	payout   PayoutCalculator
}

func NewLifecycle(clock Clock, settings Settings) *Lifecycle {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Lifecycle{
		clock:    clock,
		settings: settings,
		payout:   NewPayoutCalculator(settings.FeePercent),
	}
}

func (l *Lifecycle) Settings() Settings { return l.settings }

func (l *Lifecycle) Payouts() PayoutCalculator { return l.payout }

// Timestamps have whole-second resolution.
func (l *Lifecycle) now() time.Time {
	return l.clock.Now().UTC().Truncate(time.Second)
}

type CreateParams struct {
	ID            domain.GameID
	Creator       domain.Identity
	Rounds        uint8
	StakePerRound uint64
	Commitment    domain.Commitment
}

func stakeFor(rounds uint8, stakePerRound uint64) (uint64, error) {
	hi, stake := bits.Mul64(stakePerRound, uint64(rounds))
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return stake, nil
}

// Create escrows the creator's stake and opens a game waiting for a challenger.
func (l *Lifecycle) Create(ctx context.Context, vt ValueTransfer, p CreateParams) (*domain.Game, error) {
	if !ValidRounds(p.Rounds) {
		return nil, ErrInvalidRounds
	}
	if p.StakePerRound == 0 {
		return nil, ErrInvalidStake
	}
	stake, err := stakeFor(p.Rounds, p.StakePerRound)
	if err != nil {
		return nil, err
	}

	if err := vt.Transfer(ctx, domain.PlayerAccount(p.Creator), domain.EscrowAccount(p.ID), stake); err != nil {
		return nil, err
	}

	return &domain.Game{
		ID:                p.ID,
		Creator:           p.Creator,
		Rounds:            p.Rounds,
		StakePerRound:     p.StakePerRound,
		TotalPot:          stake,
		CreatorCommitment: p.Commitment,
		Status:            domain.StatusWaitingForChallenger,
		CreatedAt:         l.now(),
	}, nil
}

// Join escrows the challenger's matching stake and opens the reveal window.
func (l *Lifecycle) Join(ctx context.Context, vt ValueTransfer, g *domain.Game, caller domain.Identity, commitment domain.Commitment) error {
	next, err := Transition(g.Status, EventJoin)
	if err != nil {
		return err
	}
	if caller == g.Creator {
		return ErrCannotJoinOwnGame
	}
	stake, err := stakeFor(g.Rounds, g.StakePerRound)
	if err != nil {
		return err
	}
	pot, carry := bits.Add64(g.TotalPot, stake, 0)
	if carry != 0 {
		return ErrArithmeticOverflow
	}

	if err := vt.Transfer(ctx, domain.PlayerAccount(caller), domain.EscrowAccount(g.ID), stake); err != nil {
		return err
	}

	now := l.now()
	deadline := now.Add(l.settings.RevealWindow)
	challenger := caller
	g.Challenger = &challenger
	g.ChallengerCommitment = &commitment
	g.Status = next
	g.JoinedAt = &now
	g.RevealDeadline = &deadline
	g.TotalPot = pot
	return nil
}

// Reveal verifies the caller's moves against their commitment. The second
// successful reveal completes the game and resolves every round.
func (l *Lifecycle) Reveal(g *domain.Game, caller domain.Identity, moves []domain.Move, salt domain.Salt) error {
	if !inRevealPhase(g.Status) {
		return ErrInvalidGameStatus
	}
	now := l.now()
	if g.RevealDeadline != nil && now.After(*g.RevealDeadline) {
		return ErrGameExpired
	}
	if len(moves) != int(g.Rounds) {
		return ErrInvalidMoveCount
	}
	for _, m := range moves {
		if !m.Valid() {
			return ErrInvalidMove
		}
	}
	side, ok := g.SideOf(caller)
	if !ok {
		return ErrUnauthorized
	}
	// A side that already revealed has no outgoing reveal transition.
	next, err := Transition(g.Status, revealEvent(side))
	if err != nil {
		return err
	}

	stored := g.CreatorCommitment
	if side == domain.SideChallenger {
		stored = *g.ChallengerCommitment
	}
	if !VerifyCommitment(stored, moves, salt) {
		return ErrCommitmentVerificationFailed
	}

	revealed := append([]domain.Move(nil), moves...)
	if side == domain.SideCreator {
		g.CreatorMoves = revealed
	} else {
		g.ChallengerMoves = revealed
	}
	g.Status = next

	if next == domain.StatusComplete {
		l.resolve(g, now)
	}
	return nil
}

func (l *Lifecycle) resolve(g *domain.Game, now time.Time) {
	res := ResolveRounds(g.CreatorMoves, g.ChallengerMoves)
	g.RoundResults = res.Results
	switch res.Winner {
	case domain.SideCreator:
		w := g.Creator
		g.Winner = &w
	case domain.SideChallenger:
		w := *g.Challenger
		g.Winner = &w
	default:
		g.Winner = nil
	}
	g.SettledAt = &now
}

// Forfeit awards the game to the only side that revealed once the
// reveal window has closed. Only that side may call it.
func (l *Lifecycle) Forfeit(g *domain.Game, caller domain.Identity) error {
	now := l.now()
	if g.RevealDeadline == nil || !now.After(*g.RevealDeadline) {
		return ErrRevealDeadlineNotPassed
	}
	next, err := Transition(g.Status, EventForfeit)
	if err != nil {
		return err
	}

	var winner domain.Identity
	switch g.Status {
	case domain.StatusCreatorRevealed:
		winner = g.Creator
	case domain.StatusChallengerRevealed:
		winner = *g.Challenger
	}
	if caller != winner {
		return ErrUnauthorized
	}

	g.Winner = &winner
	g.Status = next
	g.SettledAt = &now
	return nil
}

// Settlement describes the transfers performed by one claim.
type Settlement struct {
	Side     domain.Side `json:"side"`
	Payout   uint64      `json:"payout"`
	Fee      uint64      `json:"fee"`
	Treasury uint64      `json:"treasury"`
	Burn     uint64      `json:"burn"`
	// Repeat is set when the caller had already claimed; nothing moved.
	Repeat bool `json:"repeat"`
}

// Claim releases the caller's share of a settled game. The fee split is
// distributed once per game, by whichever party claims first. Repeated
// claims succeed without moving funds.
func (l *Lifecycle) Claim(ctx context.Context, vt ValueTransfer, g *domain.Game, caller domain.Identity) (Settlement, error) {
	side, ok := g.SideOf(caller)
	if !ok {
		return Settlement{}, ErrUnauthorized
	}
	if _, err := Transition(g.Status, EventClaim); err != nil {
		return Settlement{}, err
	}
	if (side == domain.SideCreator && g.CreatorClaimed) || (side == domain.SideChallenger && g.ChallengerClaimed) {
		return Settlement{Side: side, Repeat: true}, nil
	}

	p, err := l.payout.ForGame(g)
	if err != nil {
		return Settlement{}, err
	}

	escrow := domain.EscrowAccount(g.ID)
	s := Settlement{Side: side, Payout: p.For(side)}
	if s.Payout > 0 {
		if err := vt.Transfer(ctx, escrow, domain.PlayerAccount(caller), s.Payout); err != nil {
			return Settlement{}, err
		}
	}

	distributeFees := p.Fee > 0 && !g.FeesDistributed
	if distributeFees {
		if p.Treasury > 0 {
			if err := vt.Transfer(ctx, escrow, l.settings.Treasury, p.Treasury); err != nil {
				return Settlement{}, err
			}
		}
		if p.Burn > 0 {
			if err := vt.Transfer(ctx, escrow, l.settings.Burn, p.Burn); err != nil {
				return Settlement{}, err
			}
		}
		s.Fee, s.Treasury, s.Burn = p.Fee, p.Treasury, p.Burn
	}

	if distributeFees {
		g.FeesCollected = p.Fee
		g.FeesDistributed = true
	}
	if side == domain.SideCreator {
		g.CreatorClaimed = true
	} else {
		g.ChallengerClaimed = true
	}
	return s, nil
}
