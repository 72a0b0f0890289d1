package game

import (
	"testing"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []domain.GameStatus{
	domain.StatusWaitingForChallenger,
	domain.StatusWaitingForReveals,
	domain.StatusCreatorRevealed,
	domain.StatusChallengerRevealed,
	domain.StatusComplete,
	domain.StatusForfeited,
}

var allEvents = []Event{EventJoin, EventCreatorReveal, EventChallengerReveal, EventForfeit, EventClaim}

func TestTransitionTable(t *testing.T) {
	legal := map[domain.GameStatus]map[Event]domain.GameStatus{
		domain.StatusWaitingForChallenger: {EventJoin: domain.StatusWaitingForReveals},
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
		domain.StatusComplete:  {EventClaim: domain.StatusComplete},
		domain.StatusForfeited: {EventClaim: domain.StatusForfeited},
	}

	for _, s := range allStatuses {
		for _, ev := range allEvents {
			next, err := Transition(s, ev)
			want, ok := legal[s][ev]
			if ok {
				assert.NoError(t, err, "%s/%s", s, ev)
				assert.Equal(t, want, next, "%s/%s", s, ev)
			} else {
				assert.ErrorIs(t, err, ErrInvalidGameStatus, "%s/%s", s, ev)
				assert.Equal(t, s, next)
			}
		}
	}
}

func TestSettledStatusesHaveNoExit(t *testing.T) {
	for _, s := range []domain.GameStatus{domain.StatusComplete, domain.StatusForfeited} {
		for _, ev := range allEvents {
			next, _ := Transition(s, ev)
			assert.Equal(t, s, next)
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	_, err := Transition(domain.GameStatus("bogus"), EventJoin)
	assert.ErrorIs(t, err, ErrInvalidGameStatus)
}
