package handlers

import (
	"errors"
	"net/http"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/logger"
	"rps_arena/internal/service"
	"rps_arena/internal/store"

	"github.com/gin-gonic/gin"
)

var errUnauthenticated = errors.New("authentication required")

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	err error
	apiError
}{
	{errUnauthenticated, apiError{http.StatusUnauthorized, "unauthenticated"}},

	{game.ErrInvalidRounds, apiError{http.StatusBadRequest, "invalid_rounds"}},
	{game.ErrInvalidStake, apiError{http.StatusBadRequest, "invalid_stake"}},
	{game.ErrInvalidMoveCount, apiError{http.StatusBadRequest, "invalid_move_count"}},
	{game.ErrInvalidMove, apiError{http.StatusBadRequest, "invalid_move"}},
	{game.ErrArithmeticOverflow, apiError{http.StatusUnprocessableEntity, "arithmetic_overflow"}},
	{game.ErrInvalidGameStatus, apiError{http.StatusConflict, "invalid_game_status"}},
	{game.ErrCannotJoinOwnGame, apiError{http.StatusConflict, "cannot_join_own_game"}},
	{game.ErrGameExpired, apiError{http.StatusConflict, "game_expired"}},
	{game.ErrRevealDeadlineNotPassed, apiError{http.StatusConflict, "reveal_deadline_not_passed"}},
	{game.ErrUnauthorized, apiError{http.StatusForbidden, "unauthorized"}},
	{game.ErrCommitmentVerificationFailed, apiError{http.StatusUnprocessableEntity, "commitment_verification_failed"}},

	{store.ErrGameNotFound, apiError{http.StatusNotFound, "game_not_found"}},
	{store.ErrGameExists, apiError{http.StatusConflict, "game_exists"}},
	{store.ErrInsufficientFunds, apiError{http.StatusPaymentRequired, "insufficient_funds"}},
	{store.ErrInvalidAmount, apiError{http.StatusBadRequest, "invalid_amount"}},
	{store.ErrAmountOutOfRange, apiError{http.StatusUnprocessableEntity, "amount_out_of_range"}},

	{service.ErrStakeTooLow, apiError{http.StatusBadRequest, "stake_too_low"}},
	{service.ErrStakeTooHigh, apiError{http.StatusBadRequest, "stake_too_high"}},
	{service.ErrInvalidTimeframe, apiError{http.StatusBadRequest, "invalid_timeframe"}},
	{service.ErrInvalidWeek, apiError{http.StatusBadRequest, "invalid_week"}},
	{service.ErrWeekNotFinished, apiError{http.StatusConflict, "week_not_finished"}},
	{service.ErrAlreadyDistributed, apiError{http.StatusConflict, "already_distributed"}},
	{service.ErrRewardNotFound, apiError{http.StatusNotFound, "reward_not_found"}},
	{service.ErrRewardClaimed, apiError{http.StatusConflict, "reward_claimed"}},

	{domain.ErrInvalidGameID, apiError{http.StatusBadRequest, "invalid_game_id"}},
	{domain.ErrInvalidHash, apiError{http.StatusBadRequest, "invalid_hash"}},
	{domain.ErrInvalidSaltBytes, apiError{http.StatusBadRequest, "invalid_salt"}},
}

// respondError writes the {"error", "message"} body for err. Unknown
// errors are logged and reported as internal.
func respondError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, gin.H{"error": e.code, "message": e.err.Error()})
			return
		}
	}

	logger.WithContext(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}
