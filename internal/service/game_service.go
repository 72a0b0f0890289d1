package service

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/events"
	"rps_arena/internal/game"
	"rps_arena/internal/logger"
	"rps_arena/internal/store"
)

var (
	ErrStakeTooLow  = errors.New("stake below minimum")
	ErrStakeTooHigh = errors.New("stake exceeds maximum")
)

// Limits bounds the stake per round accepted from players. Zero disables
// a bound.
type Limits struct {
	MinStake uint64
	MaxStake uint64
}

type GameServiceConfig struct {
	Settings game.Settings
	Limits   Limits
	Clock    game.Clock
}

// GameService runs lifecycle operations inside store transactions and
// announces what committed.
type GameService struct {
	store     store.Store
	lifecycle *game.Lifecycle
	clock     game.Clock
	limits    Limits
	publisher events.Publisher
	audit     *AuditService
}

func NewGameService(st store.Store, pub events.Publisher, audit *AuditService, cfg GameServiceConfig) *GameService {
	clock := cfg.Clock
	if clock == nil {
		clock = game.SystemClock{}
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &GameService{
		store:     st,
		lifecycle: game.NewLifecycle(clock, cfg.Settings),
		clock:     clock,
		limits:    cfg.Limits,
		publisher: pub,
		audit:     audit,
	}
}

func (s *GameService) Settings() game.Settings { return s.lifecycle.Settings() }

func (s *GameService) Limits() Limits { return s.limits }

// ValidateStake checks the configured stake bounds. A zero stake is left
// to the lifecycle, which rejects it.
func (s *GameService) ValidateStake(stake uint64) error {
	if stake == 0 {
		return nil
	}
	if s.limits.MinStake > 0 && stake < s.limits.MinStake {
		return ErrStakeTooLow
	}
	if s.limits.MaxStake > 0 && stake > s.limits.MaxStake {
		return ErrStakeTooHigh
	}
	return nil
}

type CreateGameRequest struct {
	// ID is generated when nil.
	ID            *domain.GameID
	Rounds        uint8
	StakePerRound uint64
	Commitment    domain.Commitment
}

const maxIDAttempts = 3

func newGameID() (domain.GameID, error) {
	var id domain.GameID
	_, err := rand.Read(id[:])
	return id, err
}

// CreateGame escrows the caller's stake and opens a new game.
func (s *GameService) CreateGame(ctx context.Context, caller domain.Identity, req CreateGameRequest, info RequestInfo) (*domain.Game, error) {
	g, err := s.createGame(ctx, caller, req)
	observeOp("create", err)
	if err != nil {
		return nil, err
	}

	escrowVolume.WithLabelValues("in").Add(float64(g.TotalPot))
	s.committed(ctx, events.TypeGameCreated, domain.AuditActionGameCreate, caller, g, info, map[string]interface{}{
		"rounds":          g.Rounds,
		"stake_per_round": g.StakePerRound,
	})
	return g, nil
}

func (s *GameService) createGame(ctx context.Context, caller domain.Identity, req CreateGameRequest) (*domain.Game, error) {
	if !game.ValidRounds(req.Rounds) {
		return nil, game.ErrInvalidRounds
	}
	if err := s.ValidateStake(req.StakePerRound); err != nil {
		return nil, err
	}

	attempts := 1
	if req.ID == nil {
		attempts = maxIDAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		id := domain.GameID{}
		if req.ID != nil {
			id = *req.ID
		} else {
			var err error
			if id, err = newGameID(); err != nil {
				return nil, err
			}
		}

		var created *domain.Game
		err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			g, err := s.lifecycle.Create(ctx, tx, game.CreateParams{
				ID:            id,
				Creator:       caller,
				Rounds:        req.Rounds,
				StakePerRound: req.StakePerRound,
				Commitment:    req.Commitment,
			})
			if err != nil {
				return err
			}
			if err := tx.InsertGame(ctx, g); err != nil {
				return err
			}
			created = g
			return nil
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrGameExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// update loads a game under lock, applies op and persists the result.
func (s *GameService) update(ctx context.Context, id domain.GameID, op func(ctx context.Context, tx store.Tx, g *domain.Game) error) (*domain.Game, error) {
	var updated *domain.Game
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		g, err := tx.GameForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := op(ctx, tx, g); err != nil {
			return err
		}
		if err := tx.UpdateGame(ctx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// JoinGame escrows the caller's matching stake and starts the reveal window.
func (s *GameService) JoinGame(ctx context.Context, caller domain.Identity, id domain.GameID, commitment domain.Commitment, info RequestInfo) (*domain.Game, error) {
	g, err := s.update(ctx, id, func(ctx context.Context, tx store.Tx, g *domain.Game) error {
		return s.lifecycle.Join(ctx, tx, g, caller, commitment)
	})
	observeOp("join", err)
	if err != nil {
		return nil, err
	}

	escrowVolume.WithLabelValues("in").Add(float64(g.TotalPot / 2))
	s.committed(ctx, events.TypeGameJoined, domain.AuditActionGameJoin, caller, g, info, map[string]interface{}{
		"reveal_deadline": g.RevealDeadline,
	})
	return g, nil
}

// RevealMoves verifies the caller's moves against their commitment.
func (s *GameService) RevealMoves(ctx context.Context, caller domain.Identity, id domain.GameID, moves []domain.Move, salt domain.Salt, info RequestInfo) (*domain.Game, error) {
	g, err := s.update(ctx, id, func(_ context.Context, _ store.Tx, g *domain.Game) error {
		return s.lifecycle.Reveal(g, caller, moves, salt)
	})
	observeOp("reveal", err)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{}
	if g.Status == domain.StatusComplete {
		gamesSettled.WithLabelValues(string(g.Status)).Inc()
		data["winner"] = g.Winner
	}
	s.committed(ctx, events.TypeGameRevealed, domain.AuditActionGameReveal, caller, g, info, data)
	return g, nil
}

// ForfeitGame awards a stalled game to the only side that revealed.
func (s *GameService) ForfeitGame(ctx context.Context, caller domain.Identity, id domain.GameID, info RequestInfo) (*domain.Game, error) {
	g, err := s.update(ctx, id, func(_ context.Context, _ store.Tx, g *domain.Game) error {
		return s.lifecycle.Forfeit(g, caller)
	})
	observeOp("forfeit", err)
	if err != nil {
		return nil, err
	}

	gamesSettled.WithLabelValues(string(g.Status)).Inc()
	s.committed(ctx, events.TypeGameForfeited, domain.AuditActionGameForfeit, caller, g, info, map[string]interface{}{
		"winner": g.Winner,
	})
	return g, nil
}

// ClaimPayout releases the caller's share of a settled game.
func (s *GameService) ClaimPayout(ctx context.Context, caller domain.Identity, id domain.GameID, info RequestInfo) (game.Settlement, *domain.Game, error) {
	var settlement game.Settlement
	g, err := s.update(ctx, id, func(ctx context.Context, tx store.Tx, g *domain.Game) error {
		var err error
		settlement, err = s.lifecycle.Claim(ctx, tx, g, caller)
		return err
	})
	observeOp("claim", err)
	if err != nil {
		return game.Settlement{}, nil, err
	}
	if settlement.Repeat {
		return settlement, g, nil
	}

	escrowVolume.WithLabelValues("out").Add(float64(settlement.Payout + settlement.Fee))
	s.committed(ctx, events.TypeGameClaimed, domain.AuditActionGameClaim, caller, g, info, map[string]interface{}{
		"side":     string(settlement.Side),
		"payout":   settlement.Payout,
		"fee":      settlement.Fee,
		"treasury": settlement.Treasury,
		"burn":     settlement.Burn,
	})
	return settlement, g, nil
}

// committed publishes and audits an operation after its transaction
// committed. Failures here are logged only.
func (s *GameService) committed(ctx context.Context, evType, action string, caller domain.Identity, g *domain.Game, info RequestInfo, data map[string]interface{}) {
	logger.Info("game "+evType,
		"game_id", g.ID.String(),
		"actor", string(caller),
		"status", string(g.Status),
	)

	ev := events.Event{
		Type:   evType,
		GameID: g.ID.String(),
		Actor:  caller,
		Status: g.Status,
		At:     s.clock.Now().UTC(),
		Data:   data,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("publish game event failed", "game_id", ev.GameID, "type", evType, "error", err)
	}

	if s.audit != nil {
		details := make(map[string]interface{}, len(data))
		for k, v := range data {
			details[k] = v
		}
		s.audit.LogGame(ctx, caller, action, g, info, details)
	}
}

func (s *GameService) GetGame(ctx context.Context, id domain.GameID) (*domain.Game, error) {
	return s.store.GetGame(ctx, id)
}

// Lobby lists games waiting for a challenger, newest first.
func (s *GameService) Lobby(ctx context.Context, limit int) ([]*domain.Game, error) {
	return s.store.ListOpenGames(ctx, limit)
}

func (s *GameService) MyGames(ctx context.Context, player domain.Identity, limit int) ([]*domain.Game, error) {
	return s.store.ListGamesByPlayer(ctx, player, limit)
}

// Now is the service clock, used to report stalled games.
func (s *GameService) Now() time.Time {
	return s.clock.Now().UTC()
}
