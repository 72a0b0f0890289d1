package events

import (
	"context"
	"encoding/json"
	"strings"

	"rps_arena/internal/logger"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

const channelPrefix = "rps:game:"

// Channel is the Redis channel carrying events of one game.
func Channel(gameID string) string {
	return channelPrefix + gameID
}

// RedisPublisher fans events out to every instance subscribed to the game channel.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	return errors.Wrapf(p.client.Publish(ctx, Channel(ev.GameID), payload).Err(), "publish %s", ev.Type)
}

// RedisSubscriber forwards events from every game channel into a local sink.
type RedisSubscriber struct {
	client *redis.Client
	sink   Publisher
}

func NewRedisSubscriber(client *redis.Client, sink Publisher) *RedisSubscriber {
	return &RedisSubscriber{client: client, sink: sink}
}

// Run blocks until ctx is done.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	sub := s.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "subscribe game events")
	}
	logger.Info("subscribed to game events", "pattern", channelPrefix+"*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("dropping malformed game event", "channel", msg.Channel, "error", err)
				continue
			}
			if ev.GameID == "" {
				ev.GameID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			if err := s.sink.Publish(ctx, ev); err != nil {
				logger.Warn("deliver game event failed", "game_id", ev.GameID, "error", err)
			}
		}
	}
}
