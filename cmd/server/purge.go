package main

import (
	"context"
	"time"

	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/rs/zerolog/log"
)

// purgeExpired periodically deletes expired refresh records until ctx is done.
func purgeExpired(ctx context.Context, store refresh.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purgeOnce(ctx, store, now)
		}
	}
}

func purgeOnce(ctx context.Context, store refresh.Store, now time.Time) {
	n, err := store.PurgeExpired(ctx, now)
	if err != nil {
		log.Err(err).Msg("purge expired refresh records")
		return
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("expired refresh records purged")
	}
}
