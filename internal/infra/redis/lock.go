// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.Locker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lock shared by every instance pointing at the same Redis.
type RedisLocker struct {
	cli     RedisClient
	retry   time.Duration
	maxWait time.Duration
}

func NewLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c, retry: 25 * time.Millisecond, maxWait: 2 * time.Second}
}

// TryLock polls until the key is free, ctx ends or maxWait elapses. A Redis
// error is returned at once.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)
	for {
		ok, err := l.cli.SetNX(ctx, key, token, ttl)
		if err != nil {
			return "", fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", domain.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return "", domain.ErrLockNotAcquired
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.cli.CompareAndDelete(ctx, key, token)
	return err
}
