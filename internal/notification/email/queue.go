package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"merenda/internal/notification"
	"merenda/pkg/platform/sentinel"
)

// Source yields queued email for workers. Dequeue blocks until an email is
// available, ctx ends, or the source's poll timeout elapses, in which case
// it returns sentinel.ErrNotFound.
type Source interface {
	Dequeue(ctx context.Context) (notification.OutboundEmail, error)
}

// ChannelQueue is an in-process bounded queue.
type ChannelQueue struct {
	ch chan notification.OutboundEmail
}

func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 256
	}
	return &ChannelQueue{ch: make(chan notification.OutboundEmail, size)}
}

// Enqueue never blocks; a full queue reports sentinel.ErrUnavailable.
func (q *ChannelQueue) Enqueue(_ context.Context, email notification.OutboundEmail) error {
	select {
	case q.ch <- email:
		return nil
	default:
		return fmt.Errorf("email queue full: %w", sentinel.ErrUnavailable)
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context) (notification.OutboundEmail, error) {
	select {
	case <-ctx.Done():
		return notification.OutboundEmail{}, ctx.Err()
	case email := <-q.ch:
		return email, nil
	}
}

func (q *ChannelQueue) Len() int { return len(q.ch) }

// DefaultRedisKey is the list holding serialized outbound email.
const DefaultRedisKey = "merenda:email:outbound"

// RedisQueue shares the email queue between server replicas through a
// Redis list: producers LPUSH, workers BRPOP.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewRedisQueue(client *redis.Client, key string, pollTimeout time.Duration) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &RedisQueue{client: client, key: key, pollTimeout: pollTimeout}
}

func (q *RedisQueue) Enqueue(ctx context.Context, email notification.OutboundEmail) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (notification.OutboundEmail, error) {
	res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return notification.OutboundEmail{}, sentinel.ErrNotFound
	}
	if err != nil {
		return notification.OutboundEmail{}, fmt.Errorf("dequeue email: %w", err)
	}
	// BRPOP returns [key, value].
	var email notification.OutboundEmail
	if err := json.Unmarshal([]byte(res[1]), &email); err != nil {
		return notification.OutboundEmail{}, fmt.Errorf("unmarshal email: %w", err)
	}
	return email, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
