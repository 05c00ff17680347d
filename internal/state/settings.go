package state

import (
	"context"
	"encoding/json"

	"github.com/flowdeck/flowdeck/internal/storage"
)

// Setting returns one user setting.
func (c *Coordinator) Setting(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.settings[key]
	return v, ok
}

// Settings returns a copy of the free-form settings map.
func (c *Coordinator) Settings() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.settings))
	for k, v := range c.settings {
		out[k] = v
	}
	return out
}

// SetSetting upserts one user setting and persists the map.
func (c *Coordinator) SetSetting(ctx context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings[key] = value
	c.persistLocked(ctx, storage.KeySettings, c.settings)
}

// ScheduledTests returns the stored schedule descriptors. Scheduling is
// handled elsewhere; the coordinator only keeps the documents durable and
// reload-consistent with the other collections.
func (c *Coordinator) ScheduledTests() []json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]json.RawMessage(nil), c.scheduled...)
}

// SetScheduledTests replaces the stored schedule descriptors.
func (c *Coordinator) SetScheduledTests(ctx context.Context, docs []json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduled = append([]json.RawMessage(nil), docs...)
	c.persistLocked(ctx, storage.KeyScheduled, c.scheduled)
}
