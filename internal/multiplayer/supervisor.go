package multiplayer

import (
	"context"
	"time"
)

// superviseLoop kicks clients that stopped pinging.
func (h *Host) superviseLoop(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			h.purgeStale(now)
		case <-ctx.Done():
			return nil
		}
	}
}

// purgeStale removes every client silent for longer than StaleAfter and
// returns how many were kicked.
func (h *Host) purgeStale(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stale := h.registry.Stale(now.Add(-h.cfg.StaleAfter()))
	for _, e := range stale {
		h.logger.Warn("client timed out", "conn", e.ID, "name", e.Name, "last_ping", e.LastPing)
		h.kickLocked(e, ReasonPingTimeout)
	}
	return len(stale)
}
