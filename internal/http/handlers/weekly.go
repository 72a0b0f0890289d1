package handlers

import (
	"net/http"

	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// CurrentWeek GET /weekly
func (h *Handler) CurrentWeek(c *gin.Context) {
	p, err := h.Weekly.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"week":    p,
		"ends_in": int64(p.WeekEnd.Sub(h.Games.Now()).Seconds()),
	})
}

// WeeklyHistory GET /weekly/history
func (h *Handler) WeeklyHistory(c *gin.Context) {
	periods, err := h.Weekly.History(c.Request.Context(), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weeks": periods})
}

// ClaimWeeklyReward POST /weekly/:week/claim
func (h *Handler) ClaimWeeklyReward(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	weekStart, err := service.ParseWeek(c.Param("week"))
	if err != nil {
		respondError(c, err)
		return
	}

	r, err := h.Weekly.ClaimReward(c.Request.Context(), caller, weekStart, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": r, "week_start": weekStart.Format("2006-01-02")})
}

// MyRewards GET /me/rewards
func (h *Handler) MyRewards(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	rewards, err := h.Weekly.Rewards(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}
