package sqlite

import (
	"context"
	"log/slog"
	"time"
)

// StartPurger removes storage entries untouched for longer than retention,
// checking every interval until ctx is cancelled.
func StartPurger(ctx context.Context, db *DB, interval, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := db.PurgeBefore(ctx, time.Now().Add(-retention))
				if err != nil {
					logger.Error("purging stale visitor storage", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					logger.Info("purged stale visitor storage", slog.Int64("removed", n))
				}
			}
		}
	}()
}
