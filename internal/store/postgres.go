package store

import (
	"context"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)

// Postgres stores games and the ledger in PostgreSQL. Each WithTx is a
// database transaction; games are locked with SELECT ... FOR UPDATE.
type Postgres struct {
	db           *pgxpool.Pool
	games        *repository.GameRepository
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
	audit        *repository.AuditRepository
	weekly       *repository.WeeklyRepository
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		db:           db,
		games:        repository.NewGameRepository(db),
		accounts:     repository.NewAccountRepository(db),
		transactions: repository.NewTransactionRepository(db),
		audit:        repository.NewAuditRepository(db),
		weekly:       repository.NewWeeklyRepository(db),
	}
}

type pgTx struct {
	p  *Postgres
	tx pgx.Tx
}

func (p *Postgres) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{p: p, tx: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (t *pgTx) GameForUpdate(ctx context.Context, id domain.GameID) (*domain.Game, error) {
	g, err := t.p.games.GetForUpdateWithTx(ctx, t.tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return g, err
}

func checkGameRange(g *domain.Game) error {
	if g.TotalPot > maxInt64 || g.StakePerRound > maxInt64 || g.FeesCollected > maxInt64 {
		return ErrAmountOutOfRange
	}
	return nil
}

func (t *pgTx) InsertGame(ctx context.Context, g *domain.Game) error {
	if err := checkGameRange(g); err != nil {
		return err
	}
	err := t.p.games.CreateWithTx(ctx, t.tx, g)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrGameExists
	}
	return errors.Wrap(err, "insert game")
}

func (t *pgTx) UpdateGame(ctx context.Context, g *domain.Game) error {
	if err := checkGameRange(g); err != nil {
		return err
	}
	err := t.p.games.UpdateWithTx(ctx, t.tx, g)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGameNotFound
	}
	return err
}

func (t *pgTx) WeeklyPeriodForUpdate(ctx context.Context, weekStart time.Time) (*domain.WeeklyPeriod, error) {
	weekStart = weekStart.UTC()
	return t.p.weekly.GetForUpdateWithTx(ctx, t.tx, weekStart, weekStart.Add(week))
}

func (t *pgTx) SaveWeeklyPeriod(ctx context.Context, p *domain.WeeklyPeriod) error {
	if p.Pool > maxInt64 {
		return ErrAmountOutOfRange
	}
	err := t.p.weekly.UpdateWithTx(ctx, t.tx, p)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPeriodNotFound
	}
	return err
}

func (t *pgTx) Transfer(ctx context.Context, from, to domain.Account, amount uint64) error {
	amt, err := ledgerAmount(amount)
	if err != nil {
		return err
	}

	if err := t.p.accounts.LockWithTx(ctx, t.tx, from, to); err != nil {
		return err
	}
	if _, err := t.p.accounts.DebitWithTx(ctx, t.tx, from, amt); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return ErrInsufficientFunds
		}
		return err
	}
	if _, err := t.p.accounts.CreditWithTx(ctx, t.tx, to, amt); err != nil {
		return err
	}

	for _, leg := range transferLegs(uuid.NewString(), from, to, amt) {
		if err := t.p.transactions.CreateWithTx(ctx, t.tx, leg); err != nil {
			return errors.Wrap(err, "record transfer")
		}
	}
	return nil
}

func (p *Postgres) GetGame(ctx context.Context, id domain.GameID) (*domain.Game, error) {
	g, err := p.games.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return g, err
}

func (p *Postgres) ListOpenGames(ctx context.Context, limit int) ([]*domain.Game, error) {
	return p.games.ListByStatus(ctx, domain.StatusWaitingForChallenger, clampLimit(limit, 50))
}

func (p *Postgres) ListGamesByPlayer(ctx context.Context, player domain.Identity, limit int) ([]*domain.Game, error) {
	return p.games.ListByPlayer(ctx, player, clampLimit(limit, 100))
}

func (p *Postgres) ListSettledGames(ctx context.Context, since time.Time) ([]*domain.Game, error) {
	return p.games.ListSettledSince(ctx, since)
}

func (p *Postgres) ListWeeklyPeriods(ctx context.Context, limit int) ([]*domain.WeeklyPeriod, error) {
	return p.weekly.List(ctx, clampLimit(limit, 12))
}

func (p *Postgres) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	b, err := p.accounts.Balance(ctx, account)
	if err != nil {
		return 0, err
	}
	return uint64(b), nil
}

func (p *Postgres) Mint(ctx context.Context, account domain.Account, amount uint64, meta map[string]interface{}) (uint64, error) {
	amt, err := ledgerAmount(amount)
	if err != nil {
		return 0, err
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err := p.accounts.CreditWithTx(ctx, tx, account, amt)
	if err != nil {
		return 0, err
	}
	leg := &domain.Transaction{
		Ref:     uuid.NewString(),
		Account: account,
		Type:    domain.TxTypeMint,
		Amount:  amt,
		Meta:    meta,
	}
	if err := p.transactions.CreateWithTx(ctx, tx, leg); err != nil {
		return 0, errors.Wrap(err, "record mint")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit mint")
	}
	return uint64(newBalance), nil
}

func (p *Postgres) Transactions(ctx context.Context, account domain.Account, limit int) ([]*domain.Transaction, error) {
	return p.transactions.GetByAccount(ctx, account, clampLimit(limit, 100))
}

func (p *Postgres) RecordAudit(ctx context.Context, entry *domain.AuditLog) error {
	return p.audit.Create(ctx, entry)
}

func (p *Postgres) AuditTrail(ctx context.Context, gameID string) ([]*domain.AuditLog, error) {
	return p.audit.GetByGame(ctx, gameID)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
