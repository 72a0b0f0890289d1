package handlers

import (
	"math"
	"net/http"
	"strconv"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type createGameRequest struct {
	GameID        string `json:"game_id"`
	Rounds        int    `json:"rounds"`
	StakePerRound uint64 `json:"stake_per_round"`
	Commitment    string `json:"commitment" binding:"required"`
}

type joinGameRequest struct {
	Commitment string `json:"commitment" binding:"required"`
}

type revealRequest struct {
	Moves []int  `json:"moves" binding:"required"`
	Salt  string `json:"salt" binding:"required"`
}

func gameID(c *gin.Context) (domain.GameID, bool) {
	id, err := domain.ParseGameID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return id, false
	}
	return id, true
}

func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}

// CreateGame POST /games
func (h *Handler) CreateGame(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Rounds < 0 || req.Rounds > math.MaxUint8 {
		respondError(c, game.ErrInvalidRounds)
		return
	}
	commitment, err := domain.ParseCommitment(req.Commitment)
	if err != nil {
		respondError(c, err)
		return
	}

	params := service.CreateGameRequest{
		Rounds:        uint8(req.Rounds),
		StakePerRound: req.StakePerRound,
		Commitment:    commitment,
	}
	if req.GameID != "" {
		id, err := domain.ParseGameID(req.GameID)
		if err != nil {
			respondError(c, err)
			return
		}
		params.ID = &id
	}

	g, err := h.Games.CreateGame(c.Request.Context(), caller, params, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGameView(g, h.Games.Now()))
}

// JoinGame POST /games/:id/join
func (h *Handler) JoinGame(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := gameID(c)
	if !ok {
		return
	}
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	commitment, err := domain.ParseCommitment(req.Commitment)
	if err != nil {
		respondError(c, err)
		return
	}

	g, err := h.Games.JoinGame(c.Request.Context(), caller, id, commitment, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g, h.Games.Now()))
}

// RevealMoves POST /games/:id/reveal
func (h *Handler) RevealMoves(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := gameID(c)
	if !ok {
		return
	}
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	salt, err := domain.ParseSalt(req.Salt)
	if err != nil {
		respondError(c, err)
		return
	}

	g, err := h.Games.RevealMoves(c.Request.Context(), caller, id, movesFromInts(req.Moves), salt, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g, h.Games.Now()))
}

// ForfeitGame POST /games/:id/forfeit
func (h *Handler) ForfeitGame(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := gameID(c)
	if !ok {
		return
	}

	g, err := h.Games.ForfeitGame(c.Request.Context(), caller, id, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g, h.Games.Now()))
}

// ClaimPayout POST /games/:id/claim
func (h *Handler) ClaimPayout(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := gameID(c)
	if !ok {
		return
	}

	settlement, g, err := h.Games.ClaimPayout(c.Request.Context(), caller, id, requestInfo(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settlement": settlement,
		"game":       newGameView(g, h.Games.Now()),
	})
}

// GetGame GET /games/:id
func (h *Handler) GetGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	g, err := h.Games.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameView(g, h.Games.Now()))
}

// GameAudit GET /games/:id/audit
func (h *Handler) GameAudit(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}
	if _, err := h.Games.GetGame(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	trail, err := h.Audit.GameTrail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_id": id, "entries": trail})
}

// Lobby GET /lobby
func (h *Handler) Lobby(c *gin.Context) {
	games, err := h.Games.Lobby(c.Request.Context(), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": newGameViews(games, h.Games.Now())})
}

// GameInfo GET /game/info
func (h *Handler) GameInfo(c *gin.Context) {
	settings := h.Games.Settings()
	limits := h.Games.Limits()
	c.JSON(http.StatusOK, gin.H{
		"rounds":                []int{1, 3, 5},
		"moves":                 gin.H{"rock": 1, "paper": 2, "scissors": 3},
		"fee_percent":           settings.FeePercent,
		"reveal_window_seconds": int64(settings.RevealWindow.Seconds()),
		"min_stake":             limits.MinStake,
		"max_stake":             limits.MaxStake,
		"commitment":            "keccak256(moves || salt), salt is 32 bytes",
	})
}
