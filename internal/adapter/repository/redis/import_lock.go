package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/metrics"
)

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only while it still holds the caller's token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ImportLock implements usecase.ImportLock with one Redis key per project.
type ImportLock struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewImportLock creates a new ImportLock. m may be nil.
func NewImportLock(client *redis.Client, m *metrics.Metrics) *ImportLock {
	return &ImportLock{client: client, metrics: m}
}

// Acquire takes the project's import lock for ttl and returns the token
// needed to release it.
func (l *ImportLock) Acquire(ctx context.Context, projectID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, importLockKey(projectID), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		if l.metrics != nil {
			l.metrics.ImportLockConflicts.Inc()
		}
		return "", domain.ErrImportInProgress
	}
	return token, nil
}

// Refresh pushes the lock's expiry to ttl from now while token still owns it.
func (l *ImportLock) Refresh(ctx context.Context, projectID, token string, ttl time.Duration) error {
	n, err := refreshScript.Run(ctx, l.client, []string{importLockKey(projectID)}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("refresh import lock: %w", err)
	}
	if n == 0 {
		return domain.ErrImportLockLost
	}
	return nil
}

// Release drops the lock if token still owns it. A lock that already expired
// or was taken over is left alone.
func (l *ImportLock) Release(ctx context.Context, projectID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{importLockKey(projectID)}, token).Err(); err != nil {
		return fmt.Errorf("release import lock: %w", err)
	}
	return nil
}
