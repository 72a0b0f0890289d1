package events

import (
	"context"
	"time"

	"rps_arena/internal/domain"
)

// Event types pushed to watchers of a game.
const (
	TypeGameCreated   = "game_created"
	TypeGameJoined    = "game_joined"
	TypeGameRevealed  = "game_revealed"
	TypeGameForfeited = "game_forfeited"
	TypeGameClaimed   = "game_claimed"
)

// Event is a committed state change of one game.
type Event struct {
	Type   string                 `json:"type"`
	GameID string                 `json:"game_id"`
	Actor  domain.Identity        `json:"actor"`
	Status domain.GameStatus      `json:"status"`
	At     time.Time              `json:"at"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
