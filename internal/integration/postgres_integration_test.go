package integration

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"testing"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/migrations"
	"rps_arena/internal/service"
	"rps_arena/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func openStore(t *testing.T) *store.Postgres {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := migrations.Apply(context.Background(), db, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store.NewPostgres(db)
}

func player(prefix string) domain.Identity {
	return domain.Identity(prefix + "-" + uuid.NewString()[:8])
}

func TestPostgresLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	audit := service.NewAuditService(st)
	balances := service.NewBalanceService(st, audit)
	games := service.NewGameService(st, nil, audit, service.GameServiceConfig{Settings: game.DefaultSettings()})

	creator, challenger := player("creator"), player("challenger")
	for _, p := range []domain.Identity{creator, challenger} {
		if _, err := balances.Mint(ctx, "integration", domain.PlayerAccount(p), 5000, "seed"); err != nil {
			t.Fatalf("mint %s: %v", p, err)
		}
	}

	creatorMoves := []domain.Move{domain.MoveRock, domain.MovePaper, domain.MoveScissors}
	challengerMoves := []domain.Move{domain.MoveScissors, domain.MoveRock, domain.MovePaper}
	creatorSalt, _ := game.NewSalt()
	challengerSalt, _ := game.NewSalt()

	g, err := games.CreateGame(ctx, creator, service.CreateGameRequest{
		Rounds:        3,
		StakePerRound: 100,
		Commitment:    game.ComputeCommitment(creatorMoves, creatorSalt),
	}, service.RequestInfo{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := games.JoinGame(ctx, challenger, g.ID, game.ComputeCommitment(challengerMoves, challengerSalt), service.RequestInfo{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	escrow, err := st.Balance(ctx, domain.EscrowAccount(g.ID))
	if err != nil || escrow != 600 {
		t.Fatalf("escrow balance = %d, %v; want 600", escrow, err)
	}

	if _, err := games.RevealMoves(ctx, creator, g.ID, creatorMoves, creatorSalt, service.RequestInfo{}); err != nil {
		t.Fatalf("creator reveal: %v", err)
	}
	g, err = games.RevealMoves(ctx, challenger, g.ID, challengerMoves, challengerSalt, service.RequestInfo{})
	if err != nil {
		t.Fatalf("challenger reveal: %v", err)
	}
	if g.Status != domain.StatusComplete || g.Winner == nil || *g.Winner != creator {
		t.Fatalf("unexpected result: status=%s winner=%v", g.Status, g.Winner)
	}

	s, _, err := games.ClaimPayout(ctx, creator, g.ID, service.RequestInfo{})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if s.Payout != 540 || s.Fee != 60 {
		t.Fatalf("settlement = %+v; want payout 540 fee 60", s)
	}

	bal, err := balances.GetBalance(ctx, creator)
	if err != nil || bal != 5240 {
		t.Fatalf("creator balance = %d, %v; want 5240", bal, err)
	}

	stored, err := st.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if !stored.FeesDistributed || !stored.CreatorClaimed || len(stored.RoundResults) != 3 {
		t.Fatalf("stored game not settled: %+v", stored)
	}
	if string(domain.MovesToBytes(stored.ChallengerMoves)) != string(domain.MovesToBytes(challengerMoves)) {
		t.Fatalf("challenger moves = %v", stored.ChallengerMoves)
	}

	trail, err := st.AuditTrail(ctx, g.ID.String())
	if err != nil || len(trail) != 5 {
		t.Fatalf("audit trail = %d entries, %v; want 5", len(trail), err)
	}
}

func TestPostgresRollback(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	poor := player("poor")

	games := service.NewGameService(st, nil, service.NewAuditService(st), service.GameServiceConfig{Settings: game.DefaultSettings()})
	_, err := games.CreateGame(ctx, poor, service.CreateGameRequest{Rounds: 1, StakePerRound: 10}, service.RequestInfo{})
	if err == nil {
		t.Fatal("expected insufficient funds")
	}

	mine, err := st.ListGamesByPlayer(ctx, poor, 10)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("game persisted after failed stake: %d", len(mine))
	}
}

func TestPostgresDuplicateGame(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	var id domain.GameID
	if _, err := rand.Read(id[:]); err != nil {
		t.Fatal(err)
	}
	g := &domain.Game{
		ID:            id,
		Creator:       player("dup"),
		Rounds:        1,
		StakePerRound: 1,
		TotalPot:      1,
		Status:        domain.StatusWaitingForChallenger,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	insert := func() error {
		return st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertGame(ctx, g)
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := insert(); !errors.Is(err, store.ErrGameExists) {
		t.Fatalf("second insert = %v; want ErrGameExists", err)
	}
}

func TestPostgresWeeklyPeriod(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		t.Fatal(err)
	}
	// a random Monday far enough back to stay clear of real weeks
	monday := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*(int(b[0])<<8|int(b[1])))
	winner := player("weekly")

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.WeeklyPeriodForUpdate(ctx, monday)
		if err != nil {
			return err
		}
		if p.Distributed || len(p.Rewards) != 0 {
			t.Errorf("new period = %+v", p)
		}
		now := time.Now().UTC().Truncate(time.Second)
		p.Pool = 300
		p.Distributed = true
		p.DistributedAt = &now
		p.Rewards = []domain.WeeklyReward{{Rank: 1, Player: winner, Points: 12, Amount: 150}}
		return tx.SaveWeeklyPeriod(ctx, p)
	})
	if err != nil {
		t.Fatalf("save period: %v", err)
	}

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.WeeklyPeriodForUpdate(ctx, monday)
		if err != nil {
			return err
		}
		r := p.RewardOf(winner)
		if p.Pool != 300 || !p.Distributed || r == nil || r.Amount != 150 {
			t.Errorf("reloaded period = %+v", p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reload period: %v", err)
	}

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveWeeklyPeriod(ctx, &domain.WeeklyPeriod{WeekStart: monday.AddDate(0, 0, -7*70000)})
	})
	if !errors.Is(err, store.ErrPeriodNotFound) {
		t.Fatalf("save unknown period: got %v", err)
	}
}
