package config

import (
	"strings"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	DBConnectTry  int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	JWTTTL        time.Duration
	AllowedOrigin string

	LogLevel string
	LogJSON  bool
	LogFile  string

	// Game rules
	RevealWindow    time.Duration
	FeePercent      uint64
	TreasuryAccount string
	BurnAccount     string
	MinStake        uint64
	MaxStake        uint64

	// WeeklyInterval is how often finished weeks are distributed; 0 leaves
	// it to rpsctl.
	WeeklyInterval time.Duration

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	GameRateLimit  int
	GameRateWindow time.Duration
}

// Settings returns the lifecycle constants derived from the config.
func (c *Config) Settings() game.Settings {
	return game.Settings{
		RevealWindow: c.RevealWindow,
		FeePercent:   c.FeePercent,
		Treasury:     domain.Account(c.TreasuryAccount),
		Burn:         domain.Account(c.BurnAccount),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)

	v.SetDefault("REVEAL_WINDOW", game.DefaultRevealWindow)
	v.SetDefault("FEE_PERCENT", game.DefaultFeePercent)
	v.SetDefault("TREASURY_ACCOUNT", "treasury")
	v.SetDefault("BURN_ACCOUNT", "burn")
	v.SetDefault("MIN_STAKE", 1)
	v.SetDefault("MAX_STAKE", 0) // 0 = unlimited
	v.SetDefault("WEEKLY_DISTRIBUTE_INTERVAL", time.Hour)

	v.SetDefault("API_RATE_LIMIT", 120)
	v.SetDefault("API_RATE_WINDOW", time.Minute)
	v.SetDefault("GAME_RATE_LIMIT", 60)
	v.SetDefault("GAME_RATE_WINDOW", time.Minute)
}

// Load reads .env (if present) and the environment
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromViper(newViper())
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:       v.GetString("APP_PORT"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBConnectTry:  v.GetInt("DB_CONNECT_ATTEMPTS"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		AllowedOrigin: v.GetString("ALLOWED_ORIGIN"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogJSON:  v.GetBool("LOG_JSON"),
		LogFile:  v.GetString("LOG_FILE"),

		RevealWindow:    v.GetDuration("REVEAL_WINDOW"),
		FeePercent:      v.GetUint64("FEE_PERCENT"),
		TreasuryAccount: v.GetString("TREASURY_ACCOUNT"),
		BurnAccount:     v.GetString("BURN_ACCOUNT"),
		MinStake:        v.GetUint64("MIN_STAKE"),
		MaxStake:        v.GetUint64("MAX_STAKE"),
		WeeklyInterval:  v.GetDuration("WEEKLY_DISTRIBUTE_INTERVAL"),

		APIRateLimit:   v.GetInt("API_RATE_LIMIT"),
		APIRateWindow:  v.GetDuration("API_RATE_WINDOW"),
		GameRateLimit:  v.GetInt("GAME_RATE_LIMIT"),
		GameRateWindow: v.GetDuration("GAME_RATE_WINDOW"),
	}

	if cfg.JWTSecret == "" {
		return nil, errMissing("JWT_SECRET")
	}
	if cfg.RevealWindow <= 0 {
		return nil, errInvalid("REVEAL_WINDOW")
	}
	if cfg.FeePercent > 100 {
		return nil, errInvalid("FEE_PERCENT")
	}
	if cfg.TreasuryAccount == "" || cfg.BurnAccount == "" {
		return nil, errMissing("TREASURY_ACCOUNT/BURN_ACCOUNT")
	}
	if !domain.Account(cfg.TreasuryAccount).System() {
		return nil, errInvalid("TREASURY_ACCOUNT")
	}
	if !domain.Account(cfg.BurnAccount).System() || cfg.BurnAccount == cfg.TreasuryAccount {
		return nil, errInvalid("BURN_ACCOUNT")
	}
	if cfg.WeeklyInterval < 0 {
		return nil, errInvalid("WEEKLY_DISTRIBUTE_INTERVAL")
	}
	return cfg, nil
}

// Error reports a configuration key that is missing or out of range.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return e.Key + " " + e.Reason
}

func errMissing(key string) error { return &Error{Key: key, Reason: "is not set"} }

func errInvalid(key string) error { return &Error{Key: key, Reason: "is invalid"} }
