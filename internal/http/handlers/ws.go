package handlers

import (
	"net/http"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"
	"rps_arena/internal/service"
	"rps_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS GET /ws?token=&game=  streams the events of one game.
func (h *Handler) WS(c *gin.Context) {
	// browsers cannot set headers on a websocket handshake, so the JWT comes in the query
	token := c.Query("token")
	if token == "" {
		respondError(c, errUnauthenticated)
		return
	}
	caller, err := service.ParseJWT(token)
	if err != nil {
		respondError(c, errUnauthenticated)
		return
	}

	id, err := domain.ParseGameID(c.Query("game"))
	if err != nil {
		respondError(c, err)
		return
	}
	g, err := h.Games.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	allowedOrigin := h.AllowedOrigin
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade error", "error", err)
		return
	}

	client := ws.NewClient(caller, id.String(), conn, h.Hub)
	go client.Run(ws.ReadyPayload{GameID: id.String(), Status: g.Status})
}
