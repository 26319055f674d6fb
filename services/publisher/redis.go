package publisher

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on Redis streams.
// Messages are spread over streamCount streams named <prefix>:<n>.
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	if streamCount <= 0 {
		streamCount = 1
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the Redis connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewPublisher("", "redis ping failed", err)
	}
	return nil
}

// Publish adds message to a randomly chosen stream.
// The stream is capped approximately at the configured length on every add.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	stream := p.streamName(rand.Intn(p.streamCount))

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: string(message),
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = int64(p.streamMaxLength)
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewPublisher(key, fmt.Sprintf("XADD %s failed", stream), err)
	}
	return nil
}

// TrimStreams trims every quote stream to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}

	for i := 0; i < p.streamCount; i++ {
		stream := p.streamName(i)
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return apperrors.NewPublisher("", fmt.Sprintf("XTRIM %s failed", stream), err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) streamName(n int) string {
	return p.streamPrefix + ":" + strconv.Itoa(n)
}
