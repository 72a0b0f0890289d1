package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/events"
	"rps_arena/internal/game"
	"rps_arena/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type env struct {
	ctx   context.Context
	store *store.Memory
	clock *clock
	pub   *recorder
	svc   *GameService
	bal   *BalanceService
}

const (
	alice domain.Identity = "alice"
	bob   domain.Identity = "bob"
)

var (
	aliceSalt = domain.Salt{0xA1}
	bobSalt   = domain.Salt{0xB2}
)

func newEnv(t *testing.T, limits Limits) *env {
	t.Helper()
	st := store.NewMemory()
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	pub := &recorder{}
	audit := NewAuditService(st)
	svc := NewGameService(st, pub, audit, GameServiceConfig{
		Settings: game.DefaultSettings(),
		Limits:   limits,
		Clock:    clk,
	})
	e := &env{ctx: context.Background(), store: st, clock: clk, pub: pub, svc: svc, bal: NewBalanceService(st, audit)}
	for _, p := range []domain.Identity{alice, bob} {
		_, err := e.bal.Mint(e.ctx, "operator", domain.PlayerAccount(p), 10_000, "test")
		require.NoError(t, err)
	}
	return e
}

func (e *env) balance(t *testing.T, a domain.Account) uint64 {
	t.Helper()
	b, err := e.store.Balance(e.ctx, a)
	require.NoError(t, err)
	return b
}

// played creates and joins a game of one round with stake 1000 each.
func (e *env) played(t *testing.T, aliceMove, bobMove domain.Move) *domain.Game {
	t.Helper()
	g, err := e.svc.CreateGame(e.ctx, alice, CreateGameRequest{
		Rounds:        1,
		StakePerRound: 1000,
		Commitment:    game.ComputeCommitment([]domain.Move{aliceMove}, aliceSalt),
	}, RequestInfo{})
	require.NoError(t, err)
	g, err = e.svc.JoinGame(e.ctx, bob, g.ID, game.ComputeCommitment([]domain.Move{bobMove}, bobSalt), RequestInfo{})
	require.NoError(t, err)
	return g
}

func TestGameServiceFullMatch(t *testing.T) {
	e := newEnv(t, Limits{})
	g := e.played(t, domain.MoveRock, domain.MoveScissors)
	escrow := domain.EscrowAccount(g.ID)
	assert.Equal(t, uint64(2000), e.balance(t, escrow))
	assert.Equal(t, uint64(9000), e.balance(t, domain.PlayerAccount(alice)))

	_, err := e.svc.RevealMoves(e.ctx, alice, g.ID, []domain.Move{domain.MoveRock}, aliceSalt, RequestInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	g, err = e.svc.RevealMoves(e.ctx, bob, g.ID, []domain.Move{domain.MoveScissors}, bobSalt, RequestInfo{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusComplete, g.Status)
	require.NotNil(t, g.Winner)
	assert.Equal(t, alice, *g.Winner)

	s, _, err := e.svc.ClaimPayout(e.ctx, alice, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1800), s.Payout)
	assert.Equal(t, uint64(200), s.Fee)

	assert.Equal(t, uint64(10_800), e.balance(t, domain.PlayerAccount(alice)))
	assert.Equal(t, uint64(100), e.balance(t, "treasury"))
	assert.Equal(t, uint64(100), e.balance(t, "burn"))
	assert.Equal(t, uint64(0), e.balance(t, escrow))

	again, _, err := e.svc.ClaimPayout(e.ctx, alice, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.True(t, again.Repeat)
	assert.Equal(t, uint64(10_800), e.balance(t, domain.PlayerAccount(alice)))

	// the loser's claim moves nothing but is recorded
	lost, _, err := e.svc.ClaimPayout(e.ctx, bob, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Zero(t, lost.Payout)
	assert.Zero(t, lost.Fee)

	assert.Equal(t, []string{
		events.TypeGameCreated,
		events.TypeGameJoined,
		events.TypeGameRevealed,
		events.TypeGameRevealed,
		events.TypeGameClaimed,
		events.TypeGameClaimed,
	}, e.pub.types())

	trail, err := e.svc.audit.GameTrail(e.ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, trail, 6)
	assert.Equal(t, domain.AuditActionGameCreate, trail[0].Action)
	assert.Equal(t, "10.0.0.1", trail[2].IP)
	assert.Equal(t, domain.AuditActionGameClaim, trail[5].Action)
}

func TestGameServiceFailedOperationLeavesNoTrace(t *testing.T) {
	e := newEnv(t, Limits{})
	g := e.played(t, domain.MoveRock, domain.MovePaper)
	before := len(e.pub.types())

	_, err := e.svc.RevealMoves(e.ctx, alice, g.ID, []domain.Move{domain.MovePaper}, aliceSalt, RequestInfo{})
	assert.ErrorIs(t, err, game.ErrCommitmentVerificationFailed)

	stored, err := e.svc.GetGame(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingForReveals, stored.Status)
	assert.Nil(t, stored.CreatorMoves)
	assert.Len(t, e.pub.types(), before)
}

func TestGameServiceCreateRollsBackOnInsufficientFunds(t *testing.T) {
	e := newEnv(t, Limits{})
	_, err := e.svc.CreateGame(e.ctx, "carol", CreateGameRequest{
		Rounds:        3,
		StakePerRound: 10,
	}, RequestInfo{})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)

	open, err := e.svc.Lobby(e.ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestGameServiceDuplicateID(t *testing.T) {
	e := newEnv(t, Limits{})
	id := domain.GameID{1, 2, 3, 4, 5, 6, 7, 8}
	req := CreateGameRequest{ID: &id, Rounds: 1, StakePerRound: 100}

	_, err := e.svc.CreateGame(e.ctx, alice, req, RequestInfo{})
	require.NoError(t, err)
	_, err = e.svc.CreateGame(e.ctx, bob, req, RequestInfo{})
	assert.ErrorIs(t, err, store.ErrGameExists)
	assert.Equal(t, uint64(10_000), e.balance(t, domain.PlayerAccount(bob)))
}

func TestGameServiceStakeLimits(t *testing.T) {
	e := newEnv(t, Limits{MinStake: 10, MaxStake: 500})

	cases := []struct {
		stake uint64
		want  error
	}{
		{5, ErrStakeTooLow},
		{501, ErrStakeTooHigh},
		{0, game.ErrInvalidStake},
	}
	for _, tc := range cases {
		_, err := e.svc.CreateGame(e.ctx, alice, CreateGameRequest{Rounds: 1, StakePerRound: tc.stake}, RequestInfo{})
		assert.ErrorIs(t, err, tc.want, "stake %d", tc.stake)
	}

	// rounds are validated before stake bounds
	_, err := e.svc.CreateGame(e.ctx, alice, CreateGameRequest{Rounds: 2, StakePerRound: 5}, RequestInfo{})
	assert.ErrorIs(t, err, game.ErrInvalidRounds)

	_, err = e.svc.CreateGame(e.ctx, alice, CreateGameRequest{Rounds: 1, StakePerRound: 500}, RequestInfo{})
	assert.NoError(t, err)
}

func TestGameServiceForfeit(t *testing.T) {
	e := newEnv(t, Limits{})
	g := e.played(t, domain.MovePaper, domain.MoveRock)

	_, err := e.svc.RevealMoves(e.ctx, bob, g.ID, []domain.Move{domain.MoveRock}, bobSalt, RequestInfo{})
	require.NoError(t, err)

	_, err = e.svc.ForfeitGame(e.ctx, bob, g.ID, RequestInfo{})
	assert.ErrorIs(t, err, game.ErrRevealDeadlineNotPassed)

	e.clock.advance(game.DefaultRevealWindow + time.Second)

	_, err = e.svc.ForfeitGame(e.ctx, alice, g.ID, RequestInfo{})
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	g, err = e.svc.ForfeitGame(e.ctx, bob, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusForfeited, g.Status)

	s, _, err := e.svc.ClaimPayout(e.ctx, bob, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1800), s.Payout)
	assert.Equal(t, uint64(10_800), e.balance(t, domain.PlayerAccount(bob)))
}

func TestGameServiceListings(t *testing.T) {
	e := newEnv(t, Limits{})
	open, err := e.svc.CreateGame(e.ctx, alice, CreateGameRequest{Rounds: 1, StakePerRound: 100}, RequestInfo{})
	require.NoError(t, err)
	e.clock.advance(time.Second)
	e.played(t, domain.MoveRock, domain.MoveRock)

	lobby, err := e.svc.Lobby(e.ctx, 0)
	require.NoError(t, err)
	require.Len(t, lobby, 1)
	assert.Equal(t, open.ID, lobby[0].ID)

	mine, err := e.svc.MyGames(e.ctx, bob, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	mine, err = e.svc.MyGames(e.ctx, alice, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestBalanceServiceHistory(t *testing.T) {
	e := newEnv(t, Limits{})
	e.played(t, domain.MoveRock, domain.MoveRock)

	bal, err := e.bal.GetBalance(e.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(9000), bal)

	legs, err := e.bal.History(e.ctx, bob, 10)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, domain.TxTypeStake, legs[0].Type)
	assert.Equal(t, domain.TxTypeMint, legs[1].Type)
	assert.Equal(t, "operator", legs[1].Meta["operator"])
}

func TestGameServiceIdentitiesCannotSpendSystemAccounts(t *testing.T) {
	e := newEnv(t, Limits{})
	g := e.played(t, domain.MoveRock, domain.MoveScissors)
	escrow := domain.EscrowAccount(g.ID)

	// a caller named after another game's escrow only reaches its own, empty, player account
	intruder := domain.Identity(escrow)
	_, err := e.svc.CreateGame(e.ctx, intruder, CreateGameRequest{Rounds: 1, StakePerRound: 2000}, RequestInfo{})
	assert.ErrorIs(t, err, store.ErrInsufficientFunds)
	assert.Equal(t, uint64(2000), e.balance(t, escrow))

	_, err = e.svc.RevealMoves(e.ctx, alice, g.ID, []domain.Move{domain.MoveRock}, aliceSalt, RequestInfo{})
	require.NoError(t, err)
	_, err = e.svc.RevealMoves(e.ctx, bob, g.ID, []domain.Move{domain.MoveScissors}, bobSalt, RequestInfo{})
	require.NoError(t, err)
	s, _, err := e.svc.ClaimPayout(e.ctx, alice, g.ID, RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1800), s.Payout)

	// fees land in the treasury account, never in a player called "treasury"
	assert.Equal(t, uint64(100), e.balance(t, "treasury"))
	bal, err := e.bal.GetBalance(e.ctx, "treasury")
	require.NoError(t, err)
	assert.Zero(t, bal)
}
