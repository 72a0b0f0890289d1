package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"
	"rps_arena/internal/store"
)

var (
	ErrInvalidWeek        = errors.New("week must be a Monday in YYYY-MM-DD form")
	ErrWeekNotFinished    = errors.New("week has not finished")
	ErrAlreadyDistributed = errors.New("week already distributed")
	ErrRewardNotFound     = errors.New("no reward for this week")
	ErrRewardClaimed      = errors.New("reward already claimed")
)

const (
	week = 7 * 24 * time.Hour

	pointsPerWin   = 10
	pointsPerValue = 100 // one point per this much payout
	// distributeLookback bounds how many finished weeks DistributeDue retries.
	distributeLookback = 4
)

// rewardShares are the percentages of the pool paid to ranks 1..10.
var rewardShares = []uint64{50, 20, 10, 5, 5, 2, 2, 2, 2, 2}

// WeekStart returns Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	back := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, time.UTC)
}

// ParseWeek parses a week start in YYYY-MM-DD form.
func ParseWeek(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil || !t.Equal(WeekStart(t)) {
		return time.Time{}, ErrInvalidWeek
	}
	return t, nil
}

// share returns pct percent of pool, rounded down, without overflowing.
func share(pool, pct uint64) uint64 {
	return (pool/100)*pct + (pool%100)*pct/100
}

// PlayerReward is one weekly reward of a player.
type PlayerReward struct {
	WeekStart time.Time `json:"week_start"`
	domain.WeeklyReward
}

// WeeklyService pays part of the treasury to the best players of each
// finished week. Rewards move treasury -> weekly:<week> on distribution and
// weekly:<week> -> player on claim.
type WeeklyService struct {
	store store.Store
	games *GameService
	audit *AuditService
}

func NewWeeklyService(st store.Store, games *GameService, audit *AuditService) *WeeklyService {
	return &WeeklyService{store: st, games: games, audit: audit}
}

// Standings projects the week's pool and reward table from settled games.
// The pool is the treasury share of fees already distributed by games
// settled in the week.
func (s *WeeklyService) Standings(ctx context.Context, weekStart time.Time) (*domain.WeeklyPeriod, error) {
	weekStart = weekStart.UTC()
	weekEnd := weekStart.Add(week)

	games, err := s.store.ListSettledGames(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	payouts := s.games.lifecycle.Payouts()
	period := &domain.WeeklyPeriod{WeekStart: weekStart, WeekEnd: weekEnd}
	stats := make(map[domain.Identity]*domain.WeeklyReward)
	for _, g := range games {
		if !g.SettledAt.Before(weekEnd) {
			continue
		}
		p, err := payouts.ForGame(g)
		if err != nil {
			return nil, err
		}
		if g.FeesDistributed {
			period.Pool += p.Treasury
		}
		if g.Winner == nil {
			continue
		}
		side, _ := g.SideOf(*g.Winner)
		r, ok := stats[*g.Winner]
		if !ok {
			r = &domain.WeeklyReward{Player: *g.Winner}
			stats[*g.Winner] = r
		}
		r.MatchesWon++
		r.Winnings += p.For(side)
	}

	ranked := make([]domain.WeeklyReward, 0, len(stats))
	for _, r := range stats {
		r.Points = uint64(r.MatchesWon)*pointsPerWin + r.Winnings/pointsPerValue
		ranked = append(ranked, *r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		if ranked[i].Winnings != ranked[j].Winnings {
			return ranked[i].Winnings > ranked[j].Winnings
		}
		return ranked[i].Player < ranked[j].Player
	})
	if len(ranked) > len(rewardShares) {
		ranked = ranked[:len(rewardShares)]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Amount = share(period.Pool, rewardShares[i])
	}
	period.Rewards = ranked
	return period, nil
}

// Current returns the running standings of this week.
func (s *WeeklyService) Current(ctx context.Context) (*domain.WeeklyPeriod, error) {
	return s.Standings(ctx, WeekStart(s.games.Now()))
}

// History returns stored weeks, newest first.
func (s *WeeklyService) History(ctx context.Context, limit int) ([]*domain.WeeklyPeriod, error) {
	return s.store.ListWeeklyPeriods(ctx, limit)
}

// Distribute fixes the reward table of a finished week and moves its total
// out of the treasury. A week without winners is marked distributed with
// nothing moved. Shares of ranks nobody reached stay in the treasury.
func (s *WeeklyService) Distribute(ctx context.Context, operator domain.Identity, weekStart time.Time) (*domain.WeeklyPeriod, error) {
	weekStart = weekStart.UTC()
	if !weekStart.Equal(WeekStart(weekStart)) {
		return nil, ErrInvalidWeek
	}
	now := s.games.Now().UTC()
	if now.Before(weekStart.Add(week)) {
		return nil, ErrWeekNotFinished
	}

	standings, err := s.Standings(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	var (
		out   *domain.WeeklyPeriod
		total uint64
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.WeeklyPeriodForUpdate(ctx, weekStart)
		if err != nil {
			return err
		}
		if p.Distributed {
			return ErrAlreadyDistributed
		}
		for _, r := range standings.Rewards {
			total += r.Amount
		}
		if total > 0 {
			if err := tx.Transfer(ctx, s.games.Settings().Treasury, domain.WeeklyAccount(weekStart), total); err != nil {
				return err
			}
		}
		p.Pool = standings.Pool
		p.Rewards = standings.Rewards
		p.Distributed = true
		p.DistributedAt = &now
		if err := tx.SaveWeeklyPeriod(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	observeOp("weekly_distribute", err)
	if err != nil {
		return nil, err
	}

	weeklyRewards.WithLabelValues("distributed").Add(float64(total))
	if s.audit != nil {
		s.audit.Log(ctx, operator, domain.AuditActionWeeklyDistribute, domain.AuditCategoryWeekly, "", RequestInfo{}, map[string]interface{}{
			"week_start": weekStart.Format("2006-01-02"),
			"pool":       out.Pool,
			"paid":       total,
			"winners":    len(out.Rewards),
		})
	}
	logger.Info("weekly rewards distributed", "week_start", weekStart.Format("2006-01-02"), "pool", out.Pool, "paid", total, "winners", len(out.Rewards))
	return out, nil
}

// DistributeDue distributes every finished week of the last few that has
// not been distributed yet, oldest first.
func (s *WeeklyService) DistributeDue(ctx context.Context, operator domain.Identity) ([]*domain.WeeklyPeriod, error) {
	current := WeekStart(s.games.Now())
	var (
		done    []*domain.WeeklyPeriod
		lastErr error
	)
	for i := distributeLookback; i >= 1; i-- {
		ws := current.Add(-time.Duration(i) * week)
		p, err := s.Distribute(ctx, operator, ws)
		switch {
		case err == nil:
			done = append(done, p)
		case errors.Is(err, ErrAlreadyDistributed):
		default:
			logger.Error("weekly distribution failed", "week_start", ws.Format("2006-01-02"), "error", err)
			lastErr = err
		}
	}
	return done, lastErr
}

// Run distributes due weeks every interval until ctx is done.
func (s *WeeklyService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.DistributeDue(ctx, "system")
		}
	}
}

// ClaimReward pays a player's reward for a distributed week.
func (s *WeeklyService) ClaimReward(ctx context.Context, player domain.Identity, weekStart time.Time, info RequestInfo) (*domain.WeeklyReward, error) {
	weekStart = weekStart.UTC()
	now := s.games.Now().UTC()

	var claimed domain.WeeklyReward
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.WeeklyPeriodForUpdate(ctx, weekStart)
		if err != nil {
			return err
		}
		if !p.Distributed {
			return ErrRewardNotFound
		}
		r := p.RewardOf(player)
		if r == nil {
			return ErrRewardNotFound
		}
		if r.Claimed {
			return ErrRewardClaimed
		}
		if r.Amount > 0 {
			if err := tx.Transfer(ctx, domain.WeeklyAccount(weekStart), domain.PlayerAccount(player), r.Amount); err != nil {
				return err
			}
		}
		r.Claimed = true
		r.ClaimedAt = &now
		if err := tx.SaveWeeklyPeriod(ctx, p); err != nil {
			return err
		}
		claimed = *r
		return nil
	})
	observeOp("weekly_claim", err)
	if err != nil {
		return nil, err
	}

	weeklyRewards.WithLabelValues("claimed").Add(float64(claimed.Amount))
	if s.audit != nil {
		s.audit.Log(ctx, player, domain.AuditActionWeeklyClaim, domain.AuditCategoryWeekly, "", info, map[string]interface{}{
			"week_start": weekStart.Format("2006-01-02"),
			"rank":       claimed.Rank,
			"amount":     claimed.Amount,
		})
	}
	return &claimed, nil
}

// Rewards lists a player's rewards over the stored weeks, newest first.
func (s *WeeklyService) Rewards(ctx context.Context, player domain.Identity) ([]PlayerReward, error) {
	periods, err := s.store.ListWeeklyPeriods(ctx, 52)
	if err != nil {
		return nil, err
	}
	out := []PlayerReward{}
	for _, p := range periods {
		if r := p.RewardOf(player); r != nil {
			out = append(out, PlayerReward{WeekStart: p.WeekStart, WeeklyReward: *r})
		}
	}
	return out, nil
}
