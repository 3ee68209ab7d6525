package memory

import (
	"context"
	"sync"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.Locker = (*KeyedLocker)(nil)

// KeyedLocker is an in-process per-key mutex. ttl is ignored: a lock lives
// until Unlock.
type KeyedLocker struct {
	mu    sync.Mutex
	held  map[string]string
	freed map[string]chan struct{}
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{held: make(map[string]string), freed: make(map[string]chan struct{})}
}

// TryLock waits until key is free or ctx is done.
func (l *KeyedLocker) TryLock(ctx context.Context, key string, _ time.Duration) (string, error) {
	for {
		l.mu.Lock()
		if _, busy := l.held[key]; !busy {
			token := uuid.NewString()
			l.held[key] = token
			l.freed[key] = make(chan struct{})
			l.mu.Unlock()
			return token, nil
		}
		wait := l.freed[key]
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", domain.ErrLockNotAcquired
		}
	}
}

func (l *KeyedLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return nil
	}
	delete(l.held, key)
	close(l.freed[key])
	delete(l.freed, key)
	return nil
}
