package session

import (
	"context"
	"time"

	"github.com/Rajchodisetti/quote-gateway/internal/observ"
)

// RunKeepAlive probes the session on a fixed interval so silent disconnects
// are detected even when no requests arrive. Probe failures feed straight
// into EnsureReady's recovery path and are never fatal.
func (m *Manager) RunKeepAlive(ctx context.Context, interval time.Duration) {
	observ.Log("keepalive_started", map[string]any{"interval": interval.String()})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EnsureReady(ctx)
		}
	}
}

// RunDailyRelogin fires a scheduled relogin once a day at the given hour in
// the market timezone, ahead of the provider's forced session expiry.
func (m *Manager) RunDailyRelogin(ctx context.Context, hour int, loc *time.Location) {
	for {
		now := m.now().In(loc)
		next := nextRelogin(now, hour)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.ScheduledRelogin(ctx)
		}
	}
}

// nextRelogin returns the next occurrence of hour:00 after now.
func nextRelogin(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
