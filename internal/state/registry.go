package state

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/storage"
)

// RegisterRun records a run as in flight. Registering an id that is
// already present refreshes its start time instead of duplicating it.
func (c *Coordinator) RegisterRun(ctx context.Context, id, name string) {
	now := c.now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.running {
		if c.running[i].ID == id {
			c.running[i].Name = name
			c.running[i].StartTime = now
			c.persistLocked(ctx, storage.KeyRunning, c.running)
			return
		}
	}
	c.running = append(c.running, flow.RunningTestEntry{ID: id, Name: name, StartTime: now})
	c.persistLocked(ctx, storage.KeyRunning, c.running)
}

// UnregisterRun removes a run's liveness marker.
func (c *Coordinator) UnregisterRun(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.running {
		if c.running[i].ID != id {
			continue
		}
		c.running = append(c.running[:i], c.running[i+1:]...)
		c.persistLocked(ctx, storage.KeyRunning, c.running)
		return
	}
}

// ListLiveRuns returns the markers still within the liveness TTL at now.
func (c *Coordinator) ListLiveRuns(now time.Time) []flow.RunningTestEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var live []flow.RunningTestEntry
	for _, entry := range c.running {
		if now.Sub(entry.StartTime) < c.opts.RunTTL {
			live = append(live, entry)
		}
	}
	return live
}

// SweepExpiredRuns drops markers older than the TTL and persists the
// retained set in one step, so a registration racing the sweep is never
// lost. Abandoned viewers leave markers behind; this is the only
// mechanism that reclaims them. Safe to call repeatedly.
func (c *Coordinator) SweepExpiredRuns(ctx context.Context, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	retained := c.running[:0]
	for _, entry := range c.running {
		if now.Sub(entry.StartTime) < c.opts.RunTTL {
			retained = append(retained, entry)
		}
	}
	removed := len(c.running) - len(retained)
	if removed == 0 {
		return 0
	}
	c.running = retained
	c.persistLocked(ctx, storage.KeyRunning, c.running)
	return removed
}
