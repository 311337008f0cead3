package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/ledgerimport/internal/domain"
	"github.com/iho/ledgerimport/internal/infrastructure/metrics"
)

func TestImportLockSerializesProject(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	lock := NewImportLock(client, m)
	ctx := context.Background()

	token, err := lock.Acquire(ctx, "project-a", time.Minute)
	if err != nil || token == "" {
		t.Fatalf("expected lock, got token=%q err=%v", token, err)
	}

	if _, err := lock.Acquire(ctx, "project-a", time.Minute); !errors.Is(err, domain.ErrImportInProgress) {
		t.Fatalf("expected ErrImportInProgress, got %v", err)
	}
	if got := testutil.ToFloat64(m.ImportLockConflicts); got != 1 {
		t.Fatalf("expected one conflict, got %v", got)
	}

	if _, err := lock.Acquire(ctx, "project-b", time.Minute); err != nil {
		t.Fatalf("other projects must not be blocked: %v", err)
	}

	if err := lock.Release(ctx, "project-a", token); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := lock.Acquire(ctx, "project-a", time.Minute); err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
}

func TestImportLockReleaseKeepsForeignToken(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	lock := NewImportLock(client, nil)
	ctx := context.Background()

	if _, err := lock.Acquire(ctx, "project-a", time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := lock.Release(ctx, "project-a", "stale-token"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if !mr.Exists(importLockKey("project-a")) {
		t.Fatalf("lock owned by another token must survive")
	}
}

func TestImportLockExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	lock := NewImportLock(client, nil)
	ctx := context.Background()

	if _, err := lock.Acquire(ctx, "project-a", time.Second); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := lock.Acquire(ctx, "project-a", time.Second); err != nil {
		t.Fatalf("expected expired lock to be reacquired: %v", err)
	}
}

func TestImportLockRefreshExtendsOwnedLock(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	lock := NewImportLock(client, nil)
	ctx := context.Background()

	token, err := lock.Acquire(ctx, "project-a", time.Second)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	mr.FastForward(800 * time.Millisecond)
	if err := lock.Refresh(ctx, "project-a", token, time.Second); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	mr.FastForward(800 * time.Millisecond)

	if _, err := lock.Acquire(ctx, "project-a", time.Second); !errors.Is(err, domain.ErrImportInProgress) {
		t.Fatalf("expected refreshed lock to still be held, got %v", err)
	}

	if err := lock.Refresh(ctx, "project-a", "stale-token", time.Second); !errors.Is(err, domain.ErrImportLockLost) {
		t.Fatalf("expected ErrImportLockLost for foreign token, got %v", err)
	}

	mr.FastForward(2 * time.Second)
	if err := lock.Refresh(ctx, "project-a", token, time.Second); !errors.Is(err, domain.ErrImportLockLost) {
		t.Fatalf("expected ErrImportLockLost after expiry, got %v", err)
	}
}
