package routines

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes expired contacts.
type Sweeper interface {
	DeleteExpired(now time.Time) (int, error)
}

// StartCleanupRoutine sweeps once immediately and then on every interval
// until ctx is done.
func StartCleanupRoutine(ctx context.Context, store Sweeper, interval time.Duration, logger *zap.Logger) {
	cleanupRoutine(store, time.Now(), logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cleanupRoutine(store, now, logger)
		}
	}
}

func cleanupRoutine(store Sweeper, now time.Time, logger *zap.Logger) {
	n, err := store.DeleteExpired(now)
	if err != nil {
		logger.Error("contact cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("deleted expired contacts", zap.Int("count", n))
	}
}
