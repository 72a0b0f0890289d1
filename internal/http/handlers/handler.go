package handlers

import (
	"rps_arena/internal/domain"
	"rps_arena/internal/http/middleware"
	"rps_arena/internal/service"
	"rps_arena/internal/ws"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Games   *service.GameService
	Balance *service.BalanceService
	Audit   *service.AuditService
	Weekly  *service.WeeklyService
	Hub     *ws.Hub

	// AllowedOrigin restricts websocket upgrades; empty allows any origin.
	AllowedOrigin string
}

func NewHandler(games *service.GameService, balance *service.BalanceService, audit *service.AuditService, weekly *service.WeeklyService, hub *ws.Hub, allowedOrigin string) *Handler {
	return &Handler{
		Games:         games,
		Balance:       balance,
		Audit:         audit,
		Weekly:        weekly,
		Hub:           hub,
		AllowedOrigin: allowedOrigin,
	}
}

// identity returns the caller set by the JWT middleware, answering 401 when absent.
func identity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, errUnauthenticated)
		return "", false
	}
	return id, true
}

func requestInfo(c *gin.Context) service.RequestInfo {
	return service.RequestInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
