package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisQueue stores messages in a Redis list so queued mail survives restarts
// and can be drained by any API instance.
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	block   time.Duration
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(addr, password string, db int, key string) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if key == "" {
		key = "tasks:notifications"
	}
	return &RedisQueue{client: client, key: key, timeout: 250 * time.Millisecond, block: 5 * time.Second}, nil
}

// Push appends msg to the list head.
func (q *RedisQueue) Push(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// Pop blocks until a message is available at the list tail or ctx ends.
func (q *RedisQueue) Pop(ctx context.Context) (Message, error) {
	for {
		res, err := q.client.BRPop(ctx, q.block, q.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Message{}, ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return Message{}, ErrQueueClosed
			}
			return Message{}, fmt.Errorf("brpop: %w", err)
		}
		// BRPOP replies with [key, value].
		if len(res) != 2 {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
		return msg, nil
	}
}

// Close releases the Redis client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
