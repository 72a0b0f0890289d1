package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MyGames GET /me/games
func (h *Handler) MyGames(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	games, err := h.Games.MyGames(c.Request.Context(), caller, limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": newGameViews(games, h.Games.Now())})
}

// MyBalance GET /me/balance
func (h *Handler) MyBalance(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	balance, err := h.Balance.GetBalance(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"identity": caller, "balance": balance})
}

// MyTransactions GET /me/transactions
func (h *Handler) MyTransactions(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	legs, err := h.Balance.History(c.Request.Context(), caller, limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": legs})
}
