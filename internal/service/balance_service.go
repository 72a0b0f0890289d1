package service

import (
	"context"

	"rps_arena/internal/domain"
	"rps_arena/internal/store"
)

// BalanceService exposes the ledger to players and operators.
type BalanceService struct {
	store store.Store
	audit *AuditService
}

func NewBalanceService(st store.Store, audit *AuditService) *BalanceService {
	return &BalanceService{store: st, audit: audit}
}

// GetBalance returns a player's spendable balance
func (s *BalanceService) GetBalance(ctx context.Context, player domain.Identity) (uint64, error) {
	return s.store.Balance(ctx, domain.PlayerAccount(player))
}

// Mint credits new value to an account. Used by operators and for funding
// test players.
func (s *BalanceService) Mint(ctx context.Context, operator domain.Identity, account domain.Account, amount uint64, reason string) (uint64, error) {
	meta := map[string]interface{}{"operator": string(operator)}
	if reason != "" {
		meta["reason"] = reason
	}
	newBalance, err := s.store.Mint(ctx, account, amount, meta)
	if err != nil {
		return 0, err
	}

	if s.audit != nil {
		s.audit.Log(ctx, operator, domain.AuditActionBalanceMint, domain.AuditCategoryBalance, "", RequestInfo{}, map[string]interface{}{
			"account":     string(account),
			"amount":      amount,
			"new_balance": newBalance,
		})
	}
	return newBalance, nil
}

// History returns recent ledger legs of a player
func (s *BalanceService) History(ctx context.Context, player domain.Identity, limit int) ([]*domain.Transaction, error) {
	return s.store.Transactions(ctx, domain.PlayerAccount(player), limit)
}
