package repository

import (
	"context"
	"time"
)

// Locker serializes work on a key across goroutines (and, for distributed
// implementations, across processes).
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
