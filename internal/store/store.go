package store

import (
	"context"
	"errors"
	"math"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameExists        = errors.New("game already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAmountOutOfRange  = errors.New("amount exceeds ledger range")
	ErrPeriodNotFound    = errors.New("weekly period not found")
)

// Tx is one atomic unit of work. Everything done through a Tx is either
// committed together or discarded together.
type Tx interface {
	game.ValueTransfer

	// GameForUpdate loads a game and holds it exclusively until the Tx ends.
	GameForUpdate(ctx context.Context, id domain.GameID) (*domain.Game, error)
	InsertGame(ctx context.Context, g *domain.Game) error
	UpdateGame(ctx context.Context, g *domain.Game) error

	// WeeklyPeriodForUpdate loads and holds the reward week starting at
	// weekStart, creating an empty one if it has never been stored.
	WeeklyPeriodForUpdate(ctx context.Context, weekStart time.Time) (*domain.WeeklyPeriod, error)
	SaveWeeklyPeriod(ctx context.Context, p *domain.WeeklyPeriod) error
}

// Store is the keyed game store plus the ledger backing it.
type Store interface {
	// WithTx runs fn in a Tx and commits only if fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetGame(ctx context.Context, id domain.GameID) (*domain.Game, error)
	ListOpenGames(ctx context.Context, limit int) ([]*domain.Game, error)
	ListGamesByPlayer(ctx context.Context, player domain.Identity, limit int) ([]*domain.Game, error)
	ListSettledGames(ctx context.Context, since time.Time) ([]*domain.Game, error)
	// ListWeeklyPeriods returns stored reward weeks, newest first.
	ListWeeklyPeriods(ctx context.Context, limit int) ([]*domain.WeeklyPeriod, error)

	Balance(ctx context.Context, account domain.Account) (uint64, error)
	Mint(ctx context.Context, account domain.Account, amount uint64, meta map[string]interface{}) (uint64, error)
	Transactions(ctx context.Context, account domain.Account, limit int) ([]*domain.Transaction, error)

	RecordAudit(ctx context.Context, entry *domain.AuditLog) error
	// AuditTrail returns the audit entries of one game, oldest first.
	AuditTrail(ctx context.Context, gameID string) ([]*domain.AuditLog, error)

	Ping(ctx context.Context) error
}

const maxInt64 = math.MaxInt64

const week = 7 * 24 * time.Hour

// ledgerAmount converts a core amount into the signed ledger range.
func ledgerAmount(amount uint64) (int64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if amount > maxInt64 {
		return 0, ErrAmountOutOfRange
	}
	return int64(amount), nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 || limit > 500 {
		return def
	}
	return limit
}

// transferLegs builds the debit and credit rows of one transfer.
func transferLegs(ref string, from, to domain.Account, amount int64) []*domain.Transaction {
	txType := domain.TxTypeTransfer
	meta := map[string]interface{}{}
	if gameID, ok := to.EscrowGame(); ok {
		txType = domain.TxTypeStake
		meta["game_id"] = gameID
	} else if gameID, ok := from.EscrowGame(); ok {
		txType = domain.TxTypeRelease
		meta["game_id"] = gameID
	} else if week, ok := to.WeeklyWeek(); ok {
		txType = domain.TxTypeReward
		meta["week_start"] = week
	} else if week, ok := from.WeeklyWeek(); ok {
		txType = domain.TxTypeReward
		meta["week_start"] = week
	}
	return []*domain.Transaction{
		{Ref: ref, Account: from, Counterparty: to, Type: txType, Amount: -amount, Meta: meta},
		{Ref: ref, Account: to, Counterparty: from, Type: txType, Amount: amount, Meta: meta},
	}
}
