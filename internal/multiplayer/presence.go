package multiplayer

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/tongits/internal/catalog"
)

// presenceLoop keeps the table listed in the catalog: once at start, after
// every membership change and every RegisterInterval. A failed registration
// stops hosting. On the way out the table re-registers as over capacity so
// lobby listings drop it.
func (h *Host) presenceLoop(ctx context.Context) error {
	if h.registrar == nil {
		<-ctx.Done()
		return nil
	}
	if err := h.register(ctx, false); err != nil {
		return err
	}

	ticker := time.NewTicker(h.cfg.RegisterInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hctx, cancel := context.WithTimeout(context.Background(), h.cfg.CatalogTimeout)
			if err := h.register(hctx, true); err != nil {
				h.logger.Warn("could not hide lobby", "err", err)
			}
			cancel()
			return nil
		case <-ticker.C:
		case <-h.presence:
		}
		if err := h.register(ctx, false); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return err
		}
	}
}

func (h *Host) register(ctx context.Context, hide bool) error {
	h.mu.Lock()
	n := h.registry.Count()
	h.mu.Unlock()
	if hide {
		n = h.cfg.MaxClients + 1
	}

	reg := catalog.Registration{
		Type:       h.cfg.EntryType,
		Owner:      h.name,
		Port:       h.Port(),
		NumClients: n,
	}
	rctx, cancel := context.WithTimeout(ctx, h.cfg.CatalogTimeout)
	defer cancel()
	if err := h.registrar.Register(rctx, reg); err != nil {
		return fmt.Errorf("multiplayer: presence: %w", err)
	}
	h.logger.Debug("registered", "catalog", h.cfg.CatalogAddress, "num_clients", n)
	return nil
}
