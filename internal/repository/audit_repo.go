package repository

import (
	"context"
	"encoding/json"

	"rps_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO audit_logs (actor, action, category, game_id, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, string(log.Actor), log.Action, log.Category, log.GameID, detailsJSON, log.IP, log.UserAgent).Scan(&log.ID, &log.CreatedAt)
	return errors.Wrap(err, "insert audit log")
}

// GetByGame returns the audit trail of one game, oldest first
func (r *AuditRepository) GetByGame(ctx context.Context, gameID string) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor, action, category, game_id, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE game_id = $1
		ORDER BY created_at, id
	`, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "query audit logs")
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// GetByActor returns audit logs for a player
func (r *AuditRepository) GetByActor(ctx context.Context, actor domain.Identity, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor, action, category, game_id, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE actor = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(actor), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query audit logs")
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var actor string
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &actor, &log.Action, &log.Category, &log.GameID, &detailsJSON, &log.IP, &log.UserAgent, &log.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan audit log")
		}
		log.Actor = domain.Identity(actor)
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
