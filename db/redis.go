package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const ArticleEventsKey = "articles:events"

type Queue struct {
	client *redis.Client
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func ConnectRedis(ctx context.Context, redisURL string) (*Queue, error) {
	if redisURL == "" {
		slog.Warn("REDIS_URL is empty, falling back to the default address")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewQueue(client), nil
}

func (q *Queue) Close() {
	if q.client != nil {
		q.client.Close()
	}
}

func (q *Queue) Push(ctx context.Context, key string, data string) error {
	return q.client.LPush(ctx, key, data).Err()
}

// Pop blocks for up to timeout and returns the oldest entry under key.
func (q *Queue) Pop(ctx context.Context, key string, timeout time.Duration) (string, error) {
	result, err := q.client.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

func (q *Queue) Length(ctx context.Context, key string) (int64, error) {
	return q.client.LLen(ctx, key).Result()
}
