package service

import (
	"context"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"
	"rps_arena/internal/store"
)

// RequestInfo carries caller metadata recorded in the audit log.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// AuditService handles audit logging
type AuditService struct {
	store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{store: st}
}

// Log records an entry. Failures are logged and never returned: the audit
// trail must not undo an operation that already committed.
func (s *AuditService) Log(ctx context.Context, actor domain.Identity, action, category, gameID string, info RequestInfo, details map[string]interface{}) {
	entry := &domain.AuditLog{
		Actor:     actor,
		Action:    action,
		Category:  category,
		GameID:    gameID,
		Details:   details,
		IP:        info.IP,
		UserAgent: info.UserAgent,
	}

	if err := s.store.RecordAudit(ctx, entry); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "actor", string(actor), "game_id", gameID)
	}
}

// LogGame records a lifecycle operation on a game.
func (s *AuditService) LogGame(ctx context.Context, actor domain.Identity, action string, g *domain.Game, info RequestInfo, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["status"] = string(g.Status)
	details["total_pot"] = g.TotalPot
	s.Log(ctx, actor, action, domain.AuditCategoryGame, g.ID.String(), info, details)
}

// GameTrail returns the audit entries of one game, oldest first.
func (s *AuditService) GameTrail(ctx context.Context, id domain.GameID) ([]*domain.AuditLog, error) {
	return s.store.AuditTrail(ctx, id.String())
}
