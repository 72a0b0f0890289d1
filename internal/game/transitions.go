package game

import (
	"fmt"

	"rps_arena/internal/domain"
)

// Event is a lifecycle input that may move a game between statuses.
type Event string

const (
	EventJoin             Event = "join"
	EventCreatorReveal    Event = "creator_reveal"
	EventChallengerReveal Event = "challenger_reveal"
	EventForfeit          Event = "forfeit"
	EventClaim            Event = "claim"
)

// transitions is the complete table of legal (status, event) pairs.
// Any pair not listed is rejected with ErrInvalidGameStatus.
var transitions = map[domain.GameStatus]map[Event]domain.GameStatus{
	domain.StatusWaitingForChallenger: {
		EventJoin: domain.StatusWaitingForReveals,
	},
	domain.StatusWaitingForReveals: {
		EventCreatorReveal:    domain.StatusCreatorRevealed,
		EventChallengerReveal: domain.StatusChallengerRevealed,
	},
	domain.StatusCreatorRevealed: {
		EventChallengerReveal: domain.StatusComplete,
		EventForfeit:          domain.StatusForfeited,
	},
	domain.StatusChallengerRevealed: {
		EventCreatorReveal: domain.StatusComplete,
		EventForfeit:       domain.StatusForfeited,
	},
	// Claims settle funds without changing status.
	domain.StatusComplete: {
		EventClaim: domain.StatusComplete,
	},
	domain.StatusForfeited: {
		EventClaim: domain.StatusForfeited,
	},
}

// Transition looks up the status that follows ev in from.
func Transition(from domain.GameStatus, ev Event) (domain.GameStatus, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: %s not allowed while %s", ErrInvalidGameStatus, ev, from)
}

// Accepts reports whether ev is legal in status.
func Accepts(status domain.GameStatus, ev Event) bool {
	_, ok := transitions[status][ev]
	return ok
}

// inRevealPhase is true for the statuses where at least one side may still reveal.
func inRevealPhase(status domain.GameStatus) bool {
	return Accepts(status, EventCreatorReveal) || Accepts(status, EventChallengerReveal)
}

func revealEvent(side domain.Side) Event {
	if side == domain.SideCreator {
		return EventCreatorReveal
	}
	return EventChallengerReveal
}
