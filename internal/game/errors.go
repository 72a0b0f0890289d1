package game

import "errors"

// Lifecycle errors. Every one aborts the operation with no state change.
var (
	ErrInvalidRounds                = errors.New("rounds must be 1, 3 or 5")
	ErrInvalidStake                 = errors.New("stake per round must be positive")
	ErrArithmeticOverflow           = errors.New("arithmetic overflow")
	ErrInvalidGameStatus            = errors.New("invalid game status")
	ErrCannotJoinOwnGame            = errors.New("cannot join own game")
	ErrGameExpired                  = errors.New("reveal deadline has passed")
	ErrInvalidMoveCount             = errors.New("move count does not match rounds")
	ErrInvalidMove                  = errors.New("move must be 1, 2 or 3")
	ErrUnauthorized                 = errors.New("caller is not permitted to act on this game")
	ErrCommitmentVerificationFailed = errors.New("commitment verification failed")
	ErrRevealDeadlineNotPassed      = errors.New("reveal deadline has not passed")
)
