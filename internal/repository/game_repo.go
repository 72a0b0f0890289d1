package repository

import (
	"context"
	"encoding/json"
	"time"

	"rps_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `id, creator, challenger, rounds, stake_per_round, total_pot,
	creator_commitment, challenger_commitment, creator_moves, challenger_moves,
	status, created_at, joined_at, reveal_deadline, settled_at, winner,
	round_results, fees_collected, fees_distributed, creator_claimed, challenger_claimed`

// GetByID returns a game without locking it
func (r *GameRepository) GetByID(ctx context.Context, id domain.GameID) (*domain.Game, error) {
	return getGame(ctx, r.db, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
}

// GetForUpdateWithTx loads a game and locks its row until tx ends
func (r *GameRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, id domain.GameID) (*domain.Game, error) {
	return getGame(ctx, tx, `SELECT `+gameColumns+` FROM games WHERE id = $1 FOR UPDATE`, id)
}

func getGame(ctx context.Context, q querier, sql string, id domain.GameID) (*domain.Game, error) {
	rows, err := q.Query(ctx, sql, id.String())
	if err != nil {
		return nil, errors.Wrap(err, "query game")
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrNotFound
	}
	return games[0], nil
}

// CreateWithTx inserts a new game row
func (r *GameRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, g *domain.Game) error {
	args, err := gameArgs(g)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO games (`+gameColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		args...,
	)
	return err
}

// UpdateWithTx overwrites every mutable column of an existing game
func (r *GameRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, g *domain.Game) error {
	args, err := gameArgs(g)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE games SET
			challenger = $3, total_pot = $6, challenger_commitment = $8,
			creator_moves = $9, challenger_moves = $10, status = $11,
			joined_at = $13, reveal_deadline = $14, settled_at = $15, winner = $16,
			round_results = $17, fees_collected = $18, fees_distributed = $19,
			creator_claimed = $20, challenger_claimed = $21, updated_at = now()
		 WHERE id = $1 AND creator = $2 AND rounds = $4 AND stake_per_round = $5
		   AND creator_commitment = $7 AND created_at = $12`,
		args...,
	)
	if err != nil {
		return errors.Wrap(err, "update game")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns games in a status, newest first
func (r *GameRepository) ListByStatus(ctx context.Context, status domain.GameStatus, limit int) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+`
		 FROM games
		 WHERE status = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		string(status), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list games by status")
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListByPlayer returns games where player is either party
func (r *GameRepository) ListByPlayer(ctx context.Context, player domain.Identity, limit int) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+`
		 FROM games
		 WHERE creator = $1 OR challenger = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		string(player), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list games by player")
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListSettledSince returns games completed or forfeited at or after since
func (r *GameRepository) ListSettledSince(ctx context.Context, since time.Time) ([]*domain.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+`
		 FROM games
		 WHERE settled_at IS NOT NULL AND settled_at >= $1
		 ORDER BY created_at DESC, id`,
		since,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list settled games")
	}
	defer rows.Close()

	return scanGames(rows)
}

func gameArgs(g *domain.Game) ([]any, error) {
	results := g.RoundResults
	if results == nil {
		results = []domain.RoundResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, errors.Wrap(err, "marshal round results")
	}

	var challengerCommitment []byte
	if g.ChallengerCommitment != nil {
		challengerCommitment = g.ChallengerCommitment[:]
	}

	return []any{
		g.ID.String(),
		string(g.Creator),
		identityPtr(g.Challenger),
		int16(g.Rounds),
		int64(g.StakePerRound),
		int64(g.TotalPot),
		g.CreatorCommitment[:],
		challengerCommitment,
		domain.MovesToBytes(g.CreatorMoves),
		domain.MovesToBytes(g.ChallengerMoves),
		string(g.Status),
		g.CreatedAt,
		g.JoinedAt,
		g.RevealDeadline,
		g.SettledAt,
		identityPtr(g.Winner),
		resultsJSON,
		int64(g.FeesCollected),
		g.FeesDistributed,
		g.CreatorClaimed,
		g.ChallengerClaimed,
	}, nil
}

func identityPtr(id *domain.Identity) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func scanGames(rows pgx.Rows) ([]*domain.Game, error) {
	var res []*domain.Game
	for rows.Next() {
		var (
			g                    domain.Game
			id, creator          string
			challenger, winner   *string
			rounds               int16
			stake, pot, fees     int64
			creatorCommitment    []byte
			challengerCommitment []byte
			creatorMoves         []byte
			challengerMoves      []byte
			status               string
			resultsJSON          []byte
		)

		if err := rows.Scan(
			&id, &creator, &challenger, &rounds, &stake, &pot,
			&creatorCommitment, &challengerCommitment, &creatorMoves, &challengerMoves,
			&status, &g.CreatedAt, &g.JoinedAt, &g.RevealDeadline, &g.SettledAt, &winner,
			&resultsJSON, &fees, &g.FeesDistributed, &g.CreatorClaimed, &g.ChallengerClaimed,
		); err != nil {
			return nil, errors.Wrap(err, "scan game")
		}

		gid, err := domain.ParseGameID(id)
		if err != nil {
			return nil, err
		}
		g.ID = gid
		g.Creator = domain.Identity(creator)
		g.CreatedAt = g.CreatedAt.UTC()
		g.JoinedAt = utcPtr(g.JoinedAt)
		g.RevealDeadline = utcPtr(g.RevealDeadline)
		g.SettledAt = utcPtr(g.SettledAt)
		g.Rounds = uint8(rounds)
		g.StakePerRound = uint64(stake)
		g.TotalPot = uint64(pot)
		g.FeesCollected = uint64(fees)
		g.Status = domain.GameStatus(status)
		copy(g.CreatorCommitment[:], creatorCommitment)
		if challengerCommitment != nil {
			var c domain.Commitment
			copy(c[:], challengerCommitment)
			g.ChallengerCommitment = &c
		}
		g.CreatorMoves = domain.MovesFromBytes(creatorMoves)
		g.ChallengerMoves = domain.MovesFromBytes(challengerMoves)
		if challenger != nil {
			v := domain.Identity(*challenger)
			g.Challenger = &v
		}
		if winner != nil {
			v := domain.Identity(*winner)
			g.Winner = &v
		}
		if err := json.Unmarshal(resultsJSON, &g.RoundResults); err != nil {
			return nil, errors.Wrap(err, "unmarshal round results")
		}
		if len(g.RoundResults) == 0 {
			g.RoundResults = nil
		}

		res = append(res, &g)
	}
	return res, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
