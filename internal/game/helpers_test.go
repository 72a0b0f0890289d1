package game

import (
	"context"
	"errors"
	"time"

	"rps_arena/internal/domain"
)

var errOverdraft = errors.New("overdraft")

// ledger is a minimal ValueTransfer that refuses overdrafts and keeps
// running totals per account.
type ledger struct {
	balances map[domain.Account]uint64
	debited  map[domain.Account]uint64
	credited map[domain.Account]uint64
	calls    int
}

func newLedger(funded map[domain.Account]uint64) *ledger {
	l := &ledger{
		balances: map[domain.Account]uint64{},
		debited:  map[domain.Account]uint64{},
		credited: map[domain.Account]uint64{},
	}
	for a, v := range funded {
		l.balances[a] = v
	}
	return l
}

func (l *ledger) Transfer(_ context.Context, from, to domain.Account, amount uint64) error {
	l.calls++
	if l.balances[from] < amount {
		return errOverdraft
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	l.debited[from] += amount
	l.credited[to] += amount
	return nil
}

// snapshot lets a test restore the ledger after a failed operation, the
// way a store rollback would.
func (l *ledger) snapshot() *ledger {
	return &ledger{
		balances: copyAmounts(l.balances),
		debited:  copyAmounts(l.debited),
		credited: copyAmounts(l.credited),
		calls:    l.calls,
	}
}

func (l *ledger) restore(s *ledger) {
	l.balances, l.debited, l.credited = s.balances, s.debited, s.credited
}

func copyAmounts(m map[domain.Account]uint64) map[domain.Account]uint64 {
	c := make(map[domain.Account]uint64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

const (
	alice domain.Identity = "alice"
	bob   domain.Identity = "bob"
	carol domain.Identity = "carol"
)

var testGameID = domain.GameID{1, 2, 3, 4, 5, 6, 7, 8}

func saltOf(b byte) domain.Salt {
	var s domain.Salt
	for i := range s {
		s[i] = b
	}
	return s
}

func moves(v ...domain.Move) []domain.Move { return v }

type fixture struct {
	clock *fakeClock
	lc    *Lifecycle
	vt    *ledger
}

func newFixture() *fixture {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return &fixture{
		clock: clock,
		lc:    NewLifecycle(clock, DefaultSettings()),
		vt: newLedger(map[domain.Account]uint64{
			domain.PlayerAccount(alice): 1_000_000,
			domain.PlayerAccount(bob):   1_000_000,
			domain.PlayerAccount(carol): 1_000_000,
		}),
	}
}

// joined returns a game created by alice and joined by bob with the given moves committed.
func (f *fixture) joined(rounds uint8, stake uint64, creatorMoves, challengerMoves []domain.Move) *domain.Game {
	g, err := f.lc.Create(context.Background(), f.vt, CreateParams{
		ID:            testGameID,
		Creator:       alice,
		Rounds:        rounds,
		StakePerRound: stake,
		Commitment:    ComputeCommitment(creatorMoves, saltOf(0xA1)),
	})
	if err != nil {
		panic(err)
	}
	if err := f.lc.Join(context.Background(), f.vt, g, bob, ComputeCommitment(challengerMoves, saltOf(0xB2))); err != nil {
		panic(err)
	}
	return g
}
