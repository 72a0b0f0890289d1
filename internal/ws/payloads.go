package ws

import "rps_arena/internal/domain"

// server → client
type ReadyPayload struct {
	GameID string            `json:"game_id"`
	Status domain.GameStatus `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
