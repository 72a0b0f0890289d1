package service

import (
	"testing"
	"time"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) claimed(t *testing.T, winner domain.Identity, aliceMove, bobMove domain.Move) {
	t.Helper()
	g := e.finish(t, aliceMove, bobMove)
	_, _, err := e.svc.ClaimPayout(e.ctx, winner, g.ID, RequestInfo{})
	require.NoError(t, err)
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, WeekStart(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStart(time.Date(2024, 5, 5, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, monday.Add(week), WeekStart(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)))
	// local times are read in UTC
	assert.Equal(t, monday, WeekStart(time.Date(2024, 5, 6, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))))

	got, err := ParseWeek("2024-04-29")
	require.NoError(t, err)
	assert.Equal(t, monday, got)
	for _, bad := range []string{"2024-04-30", "29-04-2024", ""} {
		_, err := ParseWeek(bad)
		assert.ErrorIs(t, err, ErrInvalidWeek, bad)
	}
}

func TestRewardShareRoundsDown(t *testing.T) {
	assert.Equal(t, uint64(100), share(200, 50))
	assert.Equal(t, uint64(3), share(199, 2))
	assert.Equal(t, uint64(0), share(1, 50))
	assert.Equal(t, uint64(9223372036854775807/2), share(9223372036854775807, 50))
}

func TestWeeklyRewards(t *testing.T) {
	e := newEnv(t, Limits{})
	w := NewWeeklyService(e.store, e.svc, NewAuditService(e.store))
	weekStart := WeekStart(e.clock.Now())
	treasury := e.svc.Settings().Treasury

	e.claimed(t, alice, domain.MoveRock, domain.MoveScissors)
	e.claimed(t, bob, domain.MoveRock, domain.MovePaper)
	// won but not claimed: counts for points, adds nothing to the pool
	e.finish(t, domain.MoveRock, domain.MoveScissors)
	// draws score nothing
	e.finish(t, domain.MoveRock, domain.MoveRock)

	current, err := w.Current(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, weekStart, current.WeekStart)
	assert.Equal(t, uint64(200), current.Pool)
	require.Len(t, current.Rewards, 2)
	assert.Equal(t, domain.WeeklyReward{Rank: 1, Player: alice, Points: 56, Winnings: 3600, MatchesWon: 2, Amount: 100}, current.Rewards[0])
	assert.Equal(t, domain.WeeklyReward{Rank: 2, Player: bob, Points: 28, Winnings: 1800, MatchesWon: 1, Amount: 40}, current.Rewards[1])

	_, err = w.Distribute(e.ctx, "operator", weekStart)
	assert.ErrorIs(t, err, ErrWeekNotFinished)
	_, err = w.ClaimReward(e.ctx, alice, weekStart, RequestInfo{})
	assert.ErrorIs(t, err, ErrRewardNotFound)

	e.clock.advance(week)
	_, err = w.Distribute(e.ctx, "operator", weekStart.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidWeek)

	p, err := w.Distribute(e.ctx, "operator", weekStart)
	require.NoError(t, err)
	assert.True(t, p.Distributed)
	require.NotNil(t, p.DistributedAt)
	assert.Equal(t, uint64(140), e.balance(t, domain.WeeklyAccount(weekStart)))
	assert.Equal(t, uint64(60), e.balance(t, treasury))

	_, err = w.Distribute(e.ctx, "operator", weekStart)
	assert.ErrorIs(t, err, ErrAlreadyDistributed)

	before := e.balance(t, domain.PlayerAccount(alice))
	r, err := w.ClaimReward(e.ctx, alice, weekStart, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), r.Amount)
	assert.True(t, r.Claimed)
	assert.Equal(t, before+100, e.balance(t, domain.PlayerAccount(alice)))
	assert.Equal(t, uint64(40), e.balance(t, domain.WeeklyAccount(weekStart)))

	legs, err := e.bal.History(e.ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, domain.TxTypeReward, legs[0].Type)
	assert.Equal(t, int64(100), legs[0].Amount)

	_, err = w.ClaimReward(e.ctx, alice, weekStart, RequestInfo{})
	assert.ErrorIs(t, err, ErrRewardClaimed)
	_, err = w.ClaimReward(e.ctx, "carol", weekStart, RequestInfo{})
	assert.ErrorIs(t, err, ErrRewardNotFound)

	rewards, err := w.Rewards(e.ctx, bob)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, weekStart, rewards[0].WeekStart)
	assert.Equal(t, uint64(40), rewards[0].Amount)
	assert.False(t, rewards[0].Claimed)

	trail, err := e.store.AuditTrail(e.ctx, "")
	require.NoError(t, err)
	var actions []string
	for _, entry := range trail {
		if entry.Category == domain.AuditCategoryWeekly {
			actions = append(actions, entry.Action)
		}
	}
	assert.Equal(t, []string{domain.AuditActionWeeklyDistribute, domain.AuditActionWeeklyClaim}, actions)
}

func TestWeeklyStandingsStayInsideTheWeek(t *testing.T) {
	e := newEnv(t, Limits{})
	w := NewWeeklyService(e.store, e.svc, nil)
	weekStart := WeekStart(e.clock.Now())

	e.claimed(t, alice, domain.MoveRock, domain.MoveScissors)
	e.clock.advance(week)
	e.claimed(t, bob, domain.MoveRock, domain.MovePaper)

	last, err := w.Standings(e.ctx, weekStart)
	require.NoError(t, err)
	require.Len(t, last.Rewards, 1)
	assert.Equal(t, alice, last.Rewards[0].Player)
	assert.Equal(t, uint64(100), last.Pool)

	this, err := w.Current(e.ctx)
	require.NoError(t, err)
	require.Len(t, this.Rewards, 1)
	assert.Equal(t, bob, this.Rewards[0].Player)
}

func TestWeeklyDistributeDue(t *testing.T) {
	e := newEnv(t, Limits{})
	w := NewWeeklyService(e.store, e.svc, nil)
	weekStart := WeekStart(e.clock.Now())

	e.claimed(t, alice, domain.MoveRock, domain.MoveScissors)
	e.clock.advance(week)

	done, err := w.DistributeDue(e.ctx, "system")
	require.NoError(t, err)
	require.Len(t, done, distributeLookback)
	// oldest first; earlier weeks had no games and move nothing
	for _, p := range done[:len(done)-1] {
		assert.True(t, p.Distributed)
		assert.Empty(t, p.Rewards)
	}
	last := done[len(done)-1]
	assert.Equal(t, weekStart, last.WeekStart)
	require.Len(t, last.Rewards, 1)
	assert.Equal(t, uint64(50), last.Rewards[0].Amount)

	again, err := w.DistributeDue(e.ctx, "system")
	require.NoError(t, err)
	assert.Empty(t, again)

	history, err := w.History(e.ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, distributeLookback)
	assert.Equal(t, weekStart, history[0].WeekStart)
}
