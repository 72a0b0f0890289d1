package main

import (
	"fmt"
	"os"

	"rps_arena/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "rpsctl",
	Short: "rps_arena operator tools",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(viper.GetString("LOG_LEVEL"), false)
	},
}

func init() {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("LOG_LEVEL", "warn")
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 3)

	rootCmd.PersistentFlags().String("database-url", "", "postgres DSN (default $DATABASE_URL)")
	_ = viper.BindPFlag("DATABASE_URL", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.AddCommand(
		migrateCmd(),
		commitCmd(),
		tokenCmd(),
		mintCmd(),
		balanceCmd(),
		weeklyCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
