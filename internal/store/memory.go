package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rps_arena/internal/domain"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Transactions are fully serialized by a
// single mutex and buffered until commit. fn passed to WithTx must not
// call back into the Memory itself.
type Memory struct {
	mu       sync.Mutex
	games    map[domain.GameID]*domain.Game
	balances map[domain.Account]int64
	txs      []*domain.Transaction
	audit    []*domain.AuditLog
	weeks    map[int64]*domain.WeeklyPeriod
	nextTxID int64
	nextLog  int64
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		games:    make(map[domain.GameID]*domain.Game),
		balances: make(map[domain.Account]int64),
		weeks:    make(map[int64]*domain.WeeklyPeriod),
		now:      time.Now,
	}
}

type memTx struct {
	m        *Memory
	games    map[domain.GameID]*domain.Game
	balances map[domain.Account]int64
	weeks    map[int64]*domain.WeeklyPeriod
	legs     []*domain.Transaction
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:        m,
		games:    make(map[domain.GameID]*domain.Game),
		balances: make(map[domain.Account]int64),
		weeks:    make(map[int64]*domain.WeeklyPeriod),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for id, g := range tx.games {
		m.games[id] = g
	}
	for a, b := range tx.balances {
		m.balances[a] = b
	}
	for k, p := range tx.weeks {
		m.weeks[k] = p
	}
	m.appendLegs(tx.legs)
	return nil
}

// appendLegs assigns ids and timestamps; the caller holds mu.
func (m *Memory) appendLegs(legs []*domain.Transaction) {
	now := m.now()
	for _, leg := range legs {
		m.nextTxID++
		leg.ID = m.nextTxID
		leg.CreatedAt = now
		m.txs = append(m.txs, leg)
	}
}

func (t *memTx) GameForUpdate(_ context.Context, id domain.GameID) (*domain.Game, error) {
	if g, ok := t.games[id]; ok {
		return g.Clone(), nil
	}
	if g, ok := t.m.games[id]; ok {
		return g.Clone(), nil
	}
	return nil, ErrGameNotFound
}

func (t *memTx) InsertGame(_ context.Context, g *domain.Game) error {
	if _, ok := t.games[g.ID]; ok {
		return ErrGameExists
	}
	if _, ok := t.m.games[g.ID]; ok {
		return ErrGameExists
	}
	t.games[g.ID] = g.Clone()
	return nil
}

func (t *memTx) UpdateGame(_ context.Context, g *domain.Game) error {
	_, staged := t.games[g.ID]
	_, stored := t.m.games[g.ID]
	if !staged && !stored {
		return ErrGameNotFound
	}
	t.games[g.ID] = g.Clone()
	return nil
}

func (t *memTx) WeeklyPeriodForUpdate(_ context.Context, weekStart time.Time) (*domain.WeeklyPeriod, error) {
	weekStart = weekStart.UTC()
	key := weekStart.Unix()
	if p, ok := t.weeks[key]; ok {
		return p.Clone(), nil
	}
	if p, ok := t.m.weeks[key]; ok {
		return p.Clone(), nil
	}
	p := &domain.WeeklyPeriod{WeekStart: weekStart, WeekEnd: weekStart.Add(week)}
	t.weeks[key] = p
	return p.Clone(), nil
}

func (t *memTx) SaveWeeklyPeriod(_ context.Context, p *domain.WeeklyPeriod) error {
	key := p.WeekStart.UTC().Unix()
	_, staged := t.weeks[key]
	_, stored := t.m.weeks[key]
	if !staged && !stored {
		return ErrPeriodNotFound
	}
	if p.Pool > maxInt64 {
		return ErrAmountOutOfRange
	}
	t.weeks[key] = p.Clone()
	return nil
}

func (t *memTx) balance(a domain.Account) int64 {
	if b, ok := t.balances[a]; ok {
		return b
	}
	return t.m.balances[a]
}

func (t *memTx) Transfer(_ context.Context, from, to domain.Account, amount uint64) error {
	amt, err := ledgerAmount(amount)
	if err != nil {
		return err
	}
	if t.balance(from) < amt {
		return ErrInsufficientFunds
	}
	if t.balance(to) > maxInt64-amt {
		return ErrAmountOutOfRange
	}
	t.balances[from] = t.balance(from) - amt
	t.balances[to] = t.balance(to) + amt
	t.legs = append(t.legs, transferLegs(uuid.NewString(), from, to, amt)...)
	return nil
}

func (m *Memory) GetGame(_ context.Context, id domain.GameID) (*domain.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g.Clone(), nil
}

func (m *Memory) filter(keep func(g *domain.Game) bool, limit int) []*domain.Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Game
	for _, g := range m.games {
		if keep(g) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) ListOpenGames(_ context.Context, limit int) ([]*domain.Game, error) {
	return m.filter(func(g *domain.Game) bool {
		return g.Status == domain.StatusWaitingForChallenger
	}, clampLimit(limit, 50)), nil
}

func (m *Memory) ListGamesByPlayer(_ context.Context, player domain.Identity, limit int) ([]*domain.Game, error) {
	return m.filter(func(g *domain.Game) bool {
		return g.IsParty(player)
	}, clampLimit(limit, 100)), nil
}

func (m *Memory) ListSettledGames(_ context.Context, since time.Time) ([]*domain.Game, error) {
	return m.filter(func(g *domain.Game) bool {
		return g.SettledAt != nil && !g.SettledAt.Before(since)
	}, 0), nil
}

func (m *Memory) ListWeeklyPeriods(_ context.Context, limit int) ([]*domain.WeeklyPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.WeeklyPeriod, 0, len(m.weeks))
	for _, p := range m.weeks {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit = clampLimit(limit, 12); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Balance(_ context.Context, account domain.Account) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(m.balances[account]), nil
}

func (m *Memory) Mint(_ context.Context, account domain.Account, amount uint64, meta map[string]interface{}) (uint64, error) {
	amt, err := ledgerAmount(amount)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[account] > maxInt64-amt {
		return 0, ErrAmountOutOfRange
	}
	m.balances[account] += amt
	m.appendLegs([]*domain.Transaction{{
		Ref:     uuid.NewString(),
		Account: account,
		Type:    domain.TxTypeMint,
		Amount:  amt,
		Meta:    meta,
	}})
	return uint64(m.balances[account]), nil
}

func (m *Memory) Transactions(_ context.Context, account domain.Account, limit int) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit = clampLimit(limit, 100)
	var out []*domain.Transaction
	for i := len(m.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.txs[i].Account == account {
			leg := *m.txs[i]
			out = append(out, &leg)
		}
	}
	return out, nil
}

func (m *Memory) RecordAudit(_ context.Context, entry *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLog++
	entry.ID = m.nextLog
	entry.CreatedAt = m.now()
	c := *entry
	m.audit = append(m.audit, &c)
	return nil
}

func (m *Memory) AuditTrail(_ context.Context, gameID string) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.AuditLog
	for _, e := range m.audit {
		if e.GameID == gameID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
