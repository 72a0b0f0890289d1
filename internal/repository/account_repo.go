package repository

import (
	"context"

	"rps_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// AccountRepository keeps ledger balances
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Balance returns the balance of an account, zero if it was never credited
func (r *AccountRepository) Balance(ctx context.Context, account domain.Account) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, string(account)).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "select balance")
	}
	return balance, nil
}

// LockWithTx locks account rows in a stable order so concurrent transfers
// touching the same accounts cannot deadlock. Missing accounts are created.
func (r *AccountRepository) LockWithTx(ctx context.Context, tx pgx.Tx, accounts ...domain.Account) error {
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, string(a))
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO accounts (id) SELECT unnest($1::text[]) ON CONFLICT (id) DO NOTHING`,
		ids,
	)
	if err != nil {
		return errors.Wrap(err, "ensure accounts")
	}
	_, err = tx.Exec(ctx,
		`SELECT id FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	return errors.Wrap(err, "lock accounts")
}

// DebitWithTx deducts amount within an existing transaction
func (r *AccountRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, account domain.Account, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = now()
		 WHERE id = $2 AND balance >= $1
		 RETURNING balance`,
		amount, string(account),
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		return 0, errors.Wrap(err, "debit account")
	}
	return newBalance, nil
}

// CreditWithTx adds amount within an existing transaction
func (r *AccountRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, account domain.Account, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (id, balance) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = now()
		 RETURNING balance`,
		string(account), amount,
	).Scan(&newBalance)
	if err != nil {
		return 0, errors.Wrap(err, "credit account")
	}
	return newBalance, nil
}
