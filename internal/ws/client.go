package ws

import (
	"encoding/json"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 64
)

// Client is one websocket connection watching one game.
type Client struct {
	Identity domain.Identity
	GameID   string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func NewClient(identity domain.Identity, gameID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Identity: identity,
		GameID:   gameID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      hub,
	}
}

// Run registers the client, queues the ready snapshot and pumps until the
// connection closes.
func (c *Client) Run(ready ReadyPayload) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	c.queue(Message{Type: MsgReady, Payload: ready})

	go c.writePump()
	c.readPump()
}

func (c *Client) queue(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	if !c.hub.deliver(c, b) {
		logger.Warn("ws send queue full", "game_id", c.GameID, "identity", string(c.Identity))
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "game_id", c.GameID, "error", err)
			}
			return
		}

		var in Message
		if err := json.Unmarshal(raw, &in); err != nil {
			c.queue(Message{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
			continue
		}
		switch in.Type {
		case MsgPing:
			c.queue(Message{Type: MsgPong})
		default:
			c.queue(Message{Type: MsgError, Payload: ErrorPayload{Message: "unsupported message type"}})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "game_id", c.GameID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
