// Package queue provides the Redis-backed task queue between the API and the
// pipeline worker, plus the per-video locks that keep processing single-flight.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tkao/creatorlens/internal/domain"
)

// Config holds Redis connection and queue settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// TaskQueue is a Redis list used as a FIFO work queue.
type TaskQueue struct {
	client *redis.Client
	key    string
}

// NewTaskQueue creates a queue over an existing Redis client.
func NewTaskQueue(client *redis.Client, key string) *TaskQueue {
	return &TaskQueue{client: client, key: key}
}

// Enqueue pushes a task onto the queue and returns its assigned id.
func (q *TaskQueue) Enqueue(ctx context.Context, task *domain.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return "", domain.Transient("failed to enqueue task", err)
	}

	return task.ID, nil
}

// Dequeue blocks until a task is available or the timeout elapses. A nil
// task with nil error means the timeout fired.
func (q *TaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Task, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Transient("failed to dequeue task", err)
	}

	// BRPop returns [key, value]
	if len(result) < 2 {
		return nil, domain.Transient("unexpected BRPOP reply", nil)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
