package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"sjsage522/makkaratutka/logger"
	apperrors "sjsage522/makkaratutka/pkg/errors"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	stream          string
	streamMaxLength int64
	log             *logger.Logger
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a new Redis publisher. A streamMaxLength of zero
// leaves the stream untrimmed.
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		stream:          stream,
		streamMaxLength: int64(streamMaxLength),
		log:             logger.ForPublisher(),
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping() error {
	return p.client.Ping(p.ctx).Err()
}

// Publish appends a message to the stream.
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = p.streamMaxLength
		args.Approx = true
	}

	id, err := p.client.XAdd(p.ctx, args).Result()
	if err != nil {
		return apperrors.NewPublisher("redis", "xadd "+p.stream, err)
	}

	p.log.Debug().Str("stream", p.stream).Str("key", key).Str("id", id).Msg("Published report")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
