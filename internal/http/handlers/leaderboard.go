package handlers

import (
	"net/http"

	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top 100 players for a timeframe
func (h *Handler) GetLeaderboard(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", service.TimeframeAll)
	top, err := h.Games.Leaderboard(c.Request.Context(), timeframe, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   top,
		"timeframe":     timeframe,
		"total_players": len(top),
	})
}
