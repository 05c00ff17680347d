package state

import (
	"context"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/storage"
)

// AddFlow saves a new flow. The id is assigned here, once, and never
// changes afterwards.
func (c *Coordinator) AddFlow(ctx context.Context, f flow.TestFlow) flow.TestFlow {
	now := c.now().UTC()
	if f.ID == "" {
		f.ID = flow.NewID()
	}
	if f.Status == "" {
		f.Status = flow.StatusPending
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	for i := range f.Steps {
		if f.Steps[i].ID == "" {
			f.Steps[i].ID = flow.NewID()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.flows = append(c.flows, f)
	c.persistLocked(ctx, storage.KeyFlows, c.flows)
	return f
}

// UpdateFlow merges the non-nil fields of upd into the stored flow and
// refreshes UpdatedAt. The record is never replaced wholesale.
func (c *Coordinator) UpdateFlow(ctx context.Context, id string, upd flow.FlowUpdate) (flow.TestFlow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.flows {
		if c.flows[i].ID != id {
			continue
		}
		f := &c.flows[i]
		if upd.Name != nil {
			f.Name = *upd.Name
		}
		if upd.Steps != nil {
			f.Steps = *upd.Steps
		}
		if upd.Status != nil {
			f.Status = *upd.Status
		}
		if upd.Browser != nil {
			f.Browser = *upd.Browser
		}
		if upd.LastRun != nil {
			f.LastRun = upd.LastRun
		}
		if upd.Duration != nil {
			f.Duration = *upd.Duration
		}
		f.UpdatedAt = c.now().UTC()
		c.persistLocked(ctx, storage.KeyFlows, c.flows)
		return *f, nil
	}
	return flow.TestFlow{}, ErrNotFound
}

// RemoveFlow deletes a flow. An unknown id is reported as false, never
// an error.
func (c *Coordinator) RemoveFlow(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.flows {
		if c.flows[i].ID != id {
			continue
		}
		c.flows = append(c.flows[:i], c.flows[i+1:]...)
		c.persistLocked(ctx, storage.KeyFlows, c.flows)
		return true
	}
	return false
}

// ListFlows returns a copy of the saved flows.
func (c *Coordinator) ListFlows() []flow.TestFlow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]flow.TestFlow(nil), c.flows...)
}

// GetFlow returns one flow by id.
func (c *Coordinator) GetFlow(id string) (flow.TestFlow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.flows {
		if f.ID == id {
			return f, nil
		}
	}
	return flow.TestFlow{}, ErrNotFound
}

// FindFlowByName returns the first saved flow with the given name. Report
// references are by name only, so this lookup is best-effort.
func (c *Coordinator) FindFlowByName(name string) (flow.TestFlow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.flows {
		if f.Name == name {
			return f, true
		}
	}
	return flow.TestFlow{}, false
}
