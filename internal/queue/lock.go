package queue

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker provides mutual exclusion per video id so that concurrent requests
// for the same video result in exactly one pipeline run.
type Locker interface {
	// TryLock attempts to acquire the lock. Returns false without error when
	// the lock is already held.
	TryLock(ctx context.Context, videoID string) (bool, error)
	// Unlock releases the lock.
	Unlock(ctx context.Context, videoID string) error
}

// RedisLocker implements Locker with SET NX and a TTL. The TTL bounds how
// long a crashed worker can keep a video locked.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = "pipeline:lock:"
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context, videoID string) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+videoID, "1", l.ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context, videoID string) error {
	return l.client.Del(ctx, l.prefix+videoID).Err()
}

// MemoryLocker is an in-process Locker for tests and single-binary setups.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker creates an in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

func (l *MemoryLocker) TryLock(_ context.Context, videoID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[videoID] {
		return false, nil
	}
	l.held[videoID] = true
	return true, nil
}

func (l *MemoryLocker) Unlock(_ context.Context, videoID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, videoID)
	return nil
}
