package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often StartTTLWorker purges expired sessions
// when no interval is given.
const DefaultSweepInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically purges
// expired sessions. Expired data is already invisible to readers; the sweep
// only reclaims space. The goroutine exits when ctx is done; the returned
// channel is closed once it has.
func StartTTLWorker(ctx context.Context, s SessionStore, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				sweepExpired(ctx, s)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

func sweepExpired(ctx context.Context, s SessionStore) {
	deleted, err := s.DeleteExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("TTL worker: context canceled during sweep", "error", err)
			return
		}
		slog.Error("TTL worker failed to delete expired sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("TTL worker purged expired sessions", "count", deleted)
	}
}
