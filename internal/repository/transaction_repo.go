package repository

import (
	"context"
	"encoding/json"

	"rps_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetByAccount returns recent ledger legs for an account
func (r *TransactionRepository) GetByAccount(ctx context.Context, account domain.Account, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, ref, account, counterparty, type, amount, meta, created_at
		 FROM transactions
		 WHERE account = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		string(account), limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query transactions")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// GetByRef returns both legs of one transfer
func (r *TransactionRepository) GetByRef(ctx context.Context, ref string) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, ref, account, counterparty, type, amount, meta, created_at
		 FROM transactions
		 WHERE ref = $1
		 ORDER BY id`,
		ref,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query transactions by ref")
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// CreateWithTx inserts a ledger leg using an existing database transaction
func (r *TransactionRepository) CreateWithTx(ctx context.Context, dbTx pgx.Tx, tx *domain.Transaction) error {
	metaJSON, err := json.Marshal(tx.Meta)
	if err != nil || tx.Meta == nil {
		metaJSON = []byte("{}")
	}

	return dbTx.QueryRow(ctx,
		`INSERT INTO transactions (ref, account, counterparty, type, amount, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		tx.Ref, string(tx.Account), string(tx.Counterparty), tx.Type, tx.Amount, metaJSON,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *TransactionRepository) scanRows(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	for rows.Next() {
		var (
			tx                    domain.Transaction
			account, counterparty string
			metaJSON              []byte
		)
		if err := rows.Scan(&tx.ID, &tx.Ref, &account, &counterparty, &tx.Type, &tx.Amount, &metaJSON, &tx.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}
		tx.Account = domain.Account(account)
		tx.Counterparty = domain.Account(counterparty)
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Meta)
		}
		result = append(result, &tx)
	}
	return result, rows.Err()
}
