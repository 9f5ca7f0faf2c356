package services

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Notifier delivers lifecycle events to the counter-party. Delivery is
// best-effort, at-least-once; a failed publish never fails the operation
// that produced it.
type Notifier interface {
	NotifyUser(userId uint, topic string, payload any)
}

type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (v *RedisNotifier) NotifyUser(userId uint, topic string, payload any) {
	raw, err := jsoniter.Marshal(map[string]any{
		"topic":   topic,
		"payload": payload,
	})
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("An error occurred when encoding notification...")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := fmt.Sprintf("calling.notify.user.%d", userId)
	if err := v.client.Publish(ctx, channel, raw).Err(); err != nil {
		log.Warn().Err(err).Uint("user", userId).Str("topic", topic).
			Msg("An error occurred when notifying user...")
	}
}
