package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	Actor     Identity               `db:"actor" json:"actor"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	GameID    string                 `db:"game_id" json:"game_id,omitempty"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryGame    = "game"
	AuditCategoryBalance = "balance"
	AuditCategoryAdmin   = "admin"
	AuditCategoryWeekly  = "weekly"
)

// Audit actions
const (
	// Game actions
	AuditActionGameCreate  = "game_create"
	AuditActionGameJoin    = "game_join"
	AuditActionGameReveal  = "game_reveal"
	AuditActionGameForfeit = "game_forfeit"
	AuditActionGameClaim   = "game_claim"

	// Balance actions
	AuditActionBalanceMint = "balance_mint"

	// Weekly reward actions
	AuditActionWeeklyDistribute = "weekly_distribute"
	AuditActionWeeklyClaim      = "weekly_claim"
)
