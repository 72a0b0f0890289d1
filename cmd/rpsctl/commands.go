package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rps_arena/internal/db"
	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/migrations"
	"rps_arena/internal/service"
	"rps_arena/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func connect() (*pgxpool.Pool, error) {
	dsn := viper.GetString("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	return db.Connect(dsn, viper.GetInt("DB_CONNECT_ATTEMPTS")), nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, _ := cmd.Flags().GetBool("list")
			if list {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			}

			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()
			return migrations.Apply(context.Background(), pool, func(name string) {
				fmt.Printf("applied %s\n", name)
			})
		},
	}
	cmd.Flags().Bool("list", false, "only list migration files")
	return cmd
}

// parseMoves reads a comma separated list of moves given as 1/2/3 or by name.
func parseMoves(s string) ([]domain.Move, error) {
	var moves []domain.Move
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		var m domain.Move
		switch part {
		case "rock", "r":
			m = domain.MoveRock
		case "paper", "p":
			m = domain.MovePaper
		case "scissors", "s":
			m = domain.MoveScissors
		default:
			n, err := strconv.ParseUint(part, 10, 8)
			if err != nil {
				return nil, errors.Errorf("unknown move %q", part)
			}
			m = domain.Move(n)
		}
		if !m.Valid() {
			return nil, errors.Errorf("unknown move %q", part)
		}
		moves = append(moves, m)
	}
	if !game.ValidRounds(uint8(len(moves))) {
		return nil, game.ErrInvalidRounds
	}
	return moves, nil
}

func commitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Compute a commitment for a list of moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			movesFlag, _ := cmd.Flags().GetString("moves")
			saltFlag, _ := cmd.Flags().GetString("salt")

			moves, err := parseMoves(movesFlag)
			if err != nil {
				return err
			}
			var salt domain.Salt
			if saltFlag != "" {
				if salt, err = domain.ParseSalt(saltFlag); err != nil {
					return err
				}
			} else if salt, err = game.NewSalt(); err != nil {
				return err
			}

			fmt.Printf("moves:      %v\n", moves)
			fmt.Printf("salt:       %s\n", salt)
			fmt.Printf("commitment: %s\n", game.ComputeCommitment(moves, salt))
			return nil
		},
	}
	cmd.Flags().String("moves", "", "comma separated moves, e.g. rock,paper,scissors or 1,2,3")
	cmd.Flags().String("salt", "", "32-byte hex salt (random when empty)")
	_ = cmd.MarkFlagRequired("moves")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Issue a JWT for a player identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			secret := viper.GetString("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET not set")
			}
			service.InitJWT(secret, ttl)
			token, err := service.GenerateJWT(domain.Identity(args[0]))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}

// ledgerAccount resolves a command argument to a player account, or to a
// raw ledger account when --system is set.
func ledgerAccount(cmd *cobra.Command, arg string) (domain.Account, error) {
	system, _ := cmd.Flags().GetBool("system")
	if !system {
		return domain.PlayerAccount(domain.Identity(arg)), nil
	}
	a := domain.Account(arg)
	if !a.System() {
		return "", errors.Errorf("%q is not a system account", arg)
	}
	return a, nil
}

func mintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <player> <amount>",
		Short: "Credit new value to a player or system account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrap(err, "amount")
			}
			reason, _ := cmd.Flags().GetString("reason")
			account, err := ledgerAccount(cmd, args[0])
			if err != nil {
				return err
			}

			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			st := store.NewPostgres(pool)
			balances := service.NewBalanceService(st, service.NewAuditService(st))
			newBalance, err := balances.Mint(context.Background(), "rpsctl", account, amount, reason)
			if err != nil {
				return err
			}
			fmt.Printf("%s balance: %d\n", account, newBalance)
			return nil
		},
	}
	cmd.Flags().String("reason", "", "note stored with the ledger entry")
	cmd.Flags().Bool("system", false, "treat the argument as a system account such as treasury")
	return cmd
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <player>",
		Short: "Show a player or system account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := ledgerAccount(cmd, args[0])
			if err != nil {
				return err
			}
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			b, err := store.NewPostgres(pool).Balance(context.Background(), account)
			if err != nil {
				return err
			}
			fmt.Printf("%s balance: %d\n", account, b)
			return nil
		},
	}
	cmd.Flags().Bool("system", false, "treat the argument as a system account such as treasury")
	return cmd
}
