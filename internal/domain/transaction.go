package domain

import (
	"strings"
	"time"
)

// Account is a ledger balance holder. Players, game escrows and weekly
// reward pools live in separate prefixed namespaces; anything else is a
// system account such as the treasury.
type Account string

const (
	playerPrefix = "player:"
	escrowPrefix = "escrow:"
	weeklyPrefix = "weekly:"
)

func PlayerAccount(id Identity) Account {
	return Account(playerPrefix + string(id))
}

// WeeklyAccount holds the reward pool of the week starting at weekStart.
func WeeklyAccount(weekStart time.Time) Account {
	return Account(weeklyPrefix + weekStart.UTC().Format("2006-01-02"))
}

// System reports whether a is outside the player, escrow and weekly
// namespaces. Treasury and burn accounts must be system accounts.
func (a Account) System() bool {
	s := string(a)
	for _, p := range []string{playerPrefix, escrowPrefix, weeklyPrefix} {
		if strings.HasPrefix(s, p) {
			return false
		}
	}
	return s != ""
}

func EscrowAccount(id GameID) Account {
	return Account(escrowPrefix + id.String())
}

// EscrowGame returns the game owning an escrow account.
func (a Account) EscrowGame() (string, bool) {
	id := strings.TrimPrefix(string(a), escrowPrefix)
	if id == string(a) || id == "" {
		return "", false
	}
	return id, true
}

// WeeklyWeek returns the week start (YYYY-MM-DD) of a weekly reward account.
func (a Account) WeeklyWeek() (string, bool) {
	week := strings.TrimPrefix(string(a), weeklyPrefix)
	if week == string(a) || week == "" {
		return "", false
	}
	return week, true
}

// Ledger entry types
const (
	TxTypeStake    = "stake"   // into a game escrow
	TxTypeRelease  = "release" // out of a game escrow: payouts and fees
	TxTypeMint     = "mint"
	TxTypeReward   = "reward" // into or out of a weekly reward pool
	TxTypeTransfer = "transfer"
)

// Transaction is one leg of a ledger movement. A transfer writes two
// legs sharing the same Ref; Amount is negative on the debited side.
type Transaction struct {
	ID           int64                  `db:"id" json:"id"`
	Ref          string                 `db:"ref" json:"ref"`
	Account      Account                `db:"account" json:"account"`
	Counterparty Account                `db:"counterparty" json:"counterparty,omitempty"`
	Type         string                 `db:"type" json:"type"`
	Amount       int64                  `db:"amount" json:"amount"`
	Meta         map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}
