package notifications

import (
	"context"
	"fmt"

	"github.com/flow-hydraulics/flow-settings-api/settings"
	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"
)

// RedisPublisher publishes every update to a Redis pub/sub channel.
type RedisPublisher struct {
	pool    *redis.Pool
	channel string
}

func NewRedisPublisher(pool *redis.Pool, channel string) *RedisPublisher {
	return &RedisPublisher{pool: pool, channel: channel}
}

// Handle implements settings.UpdatedHandler. Failures are only logged.
func (r *RedisPublisher) Handle(ctx context.Context, p settings.UpdatedPayload) {
	if err := r.Publish(ctx, p); err != nil {
		log.
			WithFields(log.Fields{"error": err, "channel": r.channel}).
			Warn("Failed to publish settings update")
	}
}

// Publish sends p to the channel.
func (r *RedisPublisher) Publish(ctx context.Context, p settings.UpdatedPayload) error {
	content, err := encode(p)
	if err != nil {
		return fmt.Errorf("error while encoding message: %w", err)
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	receivers, err := redis.Int(conn.Do("PUBLISH", r.channel, content))
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"channel": r.channel, "receivers": receivers}).Trace("Published settings update")

	return nil
}
