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

type WeeklyRepository struct {
	db *pgxpool.Pool
}

func NewWeeklyRepository(db *pgxpool.Pool) *WeeklyRepository {
	return &WeeklyRepository{db: db}
}

const weeklyColumns = `week_start, week_end, pool, distributed, distributed_at, rewards`

// GetForUpdateWithTx locks the period starting at weekStart, creating an
// empty one first if the week has no row yet.
func (r *WeeklyRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, weekStart, weekEnd time.Time) (*domain.WeeklyPeriod, error) {
	_, err := tx.Exec(ctx,
		`INSERT INTO weekly_periods (week_start, week_end) VALUES ($1, $2)
		 ON CONFLICT (week_start) DO NOTHING`,
		weekStart, weekEnd,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert weekly period")
	}

	rows, err := tx.Query(ctx, `SELECT `+weeklyColumns+` FROM weekly_periods WHERE week_start = $1 FOR UPDATE`, weekStart)
	if err != nil {
		return nil, errors.Wrap(err, "query weekly period")
	}
	defer rows.Close()

	periods, err := scanWeekly(rows)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, ErrNotFound
	}
	return periods[0], nil
}

// UpdateWithTx stores the pool, distribution state and rewards of a period
func (r *WeeklyRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, p *domain.WeeklyPeriod) error {
	rewards := p.Rewards
	if rewards == nil {
		rewards = []domain.WeeklyReward{}
	}
	rewardsJSON, err := json.Marshal(rewards)
	if err != nil {
		return errors.Wrap(err, "marshal rewards")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE weekly_periods SET
			pool = $2, distributed = $3, distributed_at = $4, rewards = $5, updated_at = now()
		 WHERE week_start = $1`,
		p.WeekStart, int64(p.Pool), p.Distributed, p.DistributedAt, rewardsJSON,
	)
	if err != nil {
		return errors.Wrap(err, "update weekly period")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns stored periods, newest first
func (r *WeeklyRepository) List(ctx context.Context, limit int) ([]*domain.WeeklyPeriod, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+weeklyColumns+` FROM weekly_periods ORDER BY week_start DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list weekly periods")
	}
	defer rows.Close()

	return scanWeekly(rows)
}

func scanWeekly(rows pgx.Rows) ([]*domain.WeeklyPeriod, error) {
	var out []*domain.WeeklyPeriod
	for rows.Next() {
		var (
			p           domain.WeeklyPeriod
			pool        int64
			rewardsJSON []byte
		)
		if err := rows.Scan(&p.WeekStart, &p.WeekEnd, &pool, &p.Distributed, &p.DistributedAt, &rewardsJSON); err != nil {
			return nil, errors.Wrap(err, "scan weekly period")
		}
		p.Pool = uint64(pool)
		p.WeekStart = p.WeekStart.UTC()
		p.WeekEnd = p.WeekEnd.UTC()
		if len(rewardsJSON) > 0 {
			if err := json.Unmarshal(rewardsJSON, &p.Rewards); err != nil {
				return nil, errors.Wrap(err, "unmarshal rewards")
			}
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
