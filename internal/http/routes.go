package http

import (
	"time"

	"rps_arena/internal/http/handlers"
	"rps_arena/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RateLimits configures the API (per IP) and game (per player) limiters.
type RateLimits struct {
	API        int
	APIWindow  time.Duration
	Game       int
	GameWindow time.Duration
}

func DefaultRateLimits() RateLimits {
	return RateLimits{API: 120, APIWindow: time.Minute, Game: 60, GameWindow: time.Minute}
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, limits RateLimits) {
	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(limits.API, limits.APIWindow))

	auth := middleware.JWT()
	gameRL := middleware.GameRateLimit(limits.Game, limits.GameWindow)

	// Lifecycle
	v1.POST("/games", auth, gameRL, h.CreateGame)
	v1.POST("/games/:id/join", auth, gameRL, h.JoinGame)
	v1.POST("/games/:id/reveal", auth, gameRL, h.RevealMoves)
	v1.POST("/games/:id/forfeit", auth, gameRL, h.ForfeitGame)
	v1.POST("/games/:id/claim", auth, h.ClaimPayout)

	// Views
	v1.GET("/games/:id", h.GetGame)
	v1.GET("/games/:id/audit", h.GameAudit)
	v1.GET("/lobby", h.Lobby)
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/game/info", h.GameInfo)

	// Weekly rewards
	v1.GET("/weekly", h.CurrentWeek)
	v1.GET("/weekly/history", h.WeeklyHistory)
	v1.POST("/weekly/:week/claim", auth, h.ClaimWeeklyReward)

	me := v1.Group("/me", auth)
	{
		me.GET("/games", h.MyGames)
		me.GET("/balance", h.MyBalance)
		me.GET("/transactions", h.MyTransactions)
		me.GET("/rewards", h.MyRewards)
	}

	// Live game events
	r.GET("/ws", h.WS)
}
