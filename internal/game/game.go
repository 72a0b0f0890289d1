package game

import (
	"context"
	"time"

	"rps_arena/internal/domain"
)

// ValueTransfer moves a fixed amount between two ledger accounts. Any
// error aborts the enclosing operation.
type ValueTransfer interface {
	Transfer(ctx context.Context, from, to domain.Account, amount uint64) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const DefaultRevealWindow = 600 * time.Second

// Settings are the tunable constants of the lifecycle.
type Settings struct {
	RevealWindow time.Duration
	FeePercent   uint64
	Treasury     domain.Account
	Burn         domain.Account
}

func DefaultSettings() Settings {
	return Settings{
		RevealWindow: DefaultRevealWindow,
		FeePercent:   DefaultFeePercent,
		Treasury:     "treasury",
		Burn:         "burn",
	}
}

// ValidRounds reports whether n is a supported match length.
func ValidRounds(n uint8) bool {
	return n == 1 || n == 3 || n == 5
}
