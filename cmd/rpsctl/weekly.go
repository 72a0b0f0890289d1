package main

import (
	"context"
	"fmt"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/service"
	"rps_arena/internal/store"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// weeklyService builds the reward service over Postgres with the fee
// settings the server runs with.
func weeklyService(st store.Store) *service.WeeklyService {
	settings := game.DefaultSettings()
	if viper.IsSet("FEE_PERCENT") {
		settings.FeePercent = viper.GetUint64("FEE_PERCENT")
	}
	if a := viper.GetString("TREASURY_ACCOUNT"); a != "" {
		settings.Treasury = domain.Account(a)
	}
	if a := viper.GetString("BURN_ACCOUNT"); a != "" {
		settings.Burn = domain.Account(a)
	}
	audit := service.NewAuditService(st)
	games := service.NewGameService(st, nil, audit, service.GameServiceConfig{Settings: settings})
	return service.NewWeeklyService(st, games, audit)
}

// weekFlag returns the --week value, or the start of the previous week.
func weekFlag(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("week")
	if s == "" {
		return service.WeekStart(time.Now()).AddDate(0, 0, -7), nil
	}
	return service.ParseWeek(s)
}

func printPeriod(p *domain.WeeklyPeriod) {
	state := "open"
	if p.Distributed {
		state = "distributed"
	}
	fmt.Printf("week %s  pool %d  %s\n", p.WeekStart.Format("2006-01-02"), p.Pool, state)
	for _, r := range p.Rewards {
		claimed := ""
		if r.Claimed {
			claimed = "  claimed"
		}
		fmt.Printf("%3d. %-24s points %-6d won %-3d reward %d%s\n", r.Rank, r.Player, r.Points, r.MatchesWon, r.Amount, claimed)
	}
}

func weeklyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Inspect and distribute weekly rewards",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the standings of a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			weekStart, err := weekFlag(cmd)
			if err != nil {
				return err
			}
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			p, err := weeklyService(store.NewPostgres(pool)).Standings(context.Background(), weekStart)
			if err != nil {
				return err
			}
			printPeriod(p)
			return nil
		},
	}

	distribute := &cobra.Command{
		Use:   "distribute",
		Short: "Move a finished week's rewards out of the treasury",
		RunE: func(cmd *cobra.Command, args []string) error {
			due, _ := cmd.Flags().GetBool("due")
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()
			w := weeklyService(store.NewPostgres(pool))
			ctx := context.Background()

			if due {
				done, err := w.DistributeDue(ctx, "rpsctl")
				for _, p := range done {
					printPeriod(p)
				}
				return err
			}

			weekStart, err := weekFlag(cmd)
			if err != nil {
				return err
			}
			p, err := w.Distribute(ctx, "rpsctl", weekStart)
			if err != nil {
				return errors.Wrapf(err, "week %s", weekStart.Format("2006-01-02"))
			}
			printPeriod(p)
			return nil
		},
	}
	distribute.Flags().Bool("due", false, "distribute every finished week not yet distributed")

	for _, c := range []*cobra.Command{show, distribute} {
		c.Flags().String("week", "", "week start (Monday, YYYY-MM-DD); defaults to last week")
	}
	cmd.AddCommand(show, distribute)
	return cmd
}
