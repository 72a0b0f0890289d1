package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rps_arena/internal/config"
	"rps_arena/internal/db"
	"rps_arena/internal/events"
	httpServer "rps_arena/internal/http"
	"rps_arena/internal/http/handlers"
	"rps_arena/internal/http/middleware"
	"rps_arena/internal/logger"
	"rps_arena/internal/migrations"
	"rps_arena/internal/service"
	"rps_arena/internal/store"
	"rps_arena/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.InitWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Pinger{}

	var st store.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	} else {
		pool := db.Connect(cfg.DatabaseURL, cfg.DBConnectTry)
		defer pool.Close()
		if err := migrations.Apply(ctx, pool, func(name string) {
			logger.Info("migration applied", "file", name)
		}); err != nil {
			logger.Fatal("failed to apply migrations", "error", err)
		}
		st = store.NewPostgres(pool)
	}
	checks["store"] = st

	hub := ws.NewHub()
	var publisher events.Publisher = hub

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, events and rate limits stay local", "addr", cfg.RedisAddr, "error", err)
		} else {
			middleware.UseRedis(rdb)
			checks["redis"] = redisPinger{rdb}
			// every instance, including this one, delivers to its own hub from the channel
			publisher = events.NewRedisPublisher(rdb)
			sub := events.NewRedisSubscriber(rdb, hub)
			go func() {
				if err := sub.Run(ctx); err != nil {
					logger.Error("game event subscriber stopped", "error", err)
				}
			}()
		}
	}

	audit := service.NewAuditService(st)
	games := service.NewGameService(st, publisher, audit, service.GameServiceConfig{
		Settings: cfg.Settings(),
		Limits:   service.Limits{MinStake: cfg.MinStake, MaxStake: cfg.MaxStake},
	})
	balance := service.NewBalanceService(st, audit)
	weekly := service.NewWeeklyService(st, games, audit)
	if cfg.WeeklyInterval > 0 {
		go weekly.Run(ctx, cfg.WeeklyInterval)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.AllowedOrigin != "" {
		corsCfg.AllowOrigins = []string{cfg.AllowedOrigin}
	} else {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	}
	r.Use(cors.New(corsCfg))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandler(games, balance, audit, weekly, hub, cfg.AllowedOrigin)
	health := handlers.NewHealthHandler(version, checks)
	httpServer.RegisterRoutes(r, h, health, httpServer.RateLimits{
		API:        cfg.APIRateLimit,
		APIWindow:  cfg.APIRateWindow,
		Game:       cfg.GameRateLimit,
		GameWindow: cfg.GameRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
