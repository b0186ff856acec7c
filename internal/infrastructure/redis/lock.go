package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.ScanLocker = (*ScanLocker)(nil)

// ScanLocker bloqueo distribuido con TTL para que una sola réplica escanee cada tenant.
type ScanLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewScanLocker construye el locker sobre cualquier cliente compatible con redislock.
func NewScanLocker(rdb redislock.RedisClient, ttl time.Duration) *ScanLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ScanLocker{locker: redislock.New(rdb), ttl: ttl}
}

// TryLock intenta obtener el bloqueo sin reintentos. ok=false si otra réplica lo tiene.
func (l *ScanLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	release := func() {
		// El TTL libera el bloqueo aunque Release falle.
		_ = lock.Release(context.Background())
	}
	return release, true, nil
}
