package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"rps_arena/internal/domain"
)

var ErrInvalidTimeframe = errors.New("timeframe must be week, month or all")

const (
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeAll   = "all"
)

// since returns the start of a leaderboard timeframe; zero means all time.
func since(now time.Time, timeframe string) (time.Time, error) {
	switch timeframe {
	case TimeframeWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case TimeframeMonth:
		return now.Add(-30 * 24 * time.Hour), nil
	case TimeframeAll, "":
		return time.Time{}, nil
	}
	return time.Time{}, ErrInvalidTimeframe
}

// Leaderboard ranks players by winnings over games settled in the
// timeframe. A win is worth the winner's payout after fees; draws count as
// played only.
func (s *GameService) Leaderboard(ctx context.Context, timeframe string, limit int) ([]domain.LeaderboardEntry, error) {
	from, err := since(s.Now(), timeframe)
	if err != nil {
		return nil, err
	}
	games, err := s.store.ListSettledGames(ctx, from)
	if err != nil {
		return nil, err
	}

	payouts := s.lifecycle.Payouts()
	stats := make(map[domain.Identity]*domain.LeaderboardEntry)
	entry := func(p domain.Identity) *domain.LeaderboardEntry {
		e, ok := stats[p]
		if !ok {
			e = &domain.LeaderboardEntry{Player: p}
			stats[p] = e
		}
		return e
	}

	for _, g := range games {
		entry(g.Creator).MatchesPlayed++
		if g.Challenger != nil {
			entry(*g.Challenger).MatchesPlayed++
		}
		if g.Winner == nil {
			continue
		}
		p, err := payouts.ForGame(g)
		if err != nil {
			return nil, err
		}
		side, _ := g.SideOf(*g.Winner)
		w := entry(*g.Winner)
		w.MatchesWon++
		w.Winnings += p.For(side)
	}

	out := make([]domain.LeaderboardEntry, 0, len(stats))
	for _, e := range stats {
		if e.MatchesPlayed > 0 {
			e.WinRate = math.Round(float64(e.MatchesWon)/float64(e.MatchesPlayed)*1000) / 10
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Winnings != out[j].Winnings {
			return out[i].Winnings > out[j].Winnings
		}
		if out[i].MatchesWon != out[j].MatchesWon {
			return out[i].MatchesWon > out[j].MatchesWon
		}
		return out[i].Player < out[j].Player
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
