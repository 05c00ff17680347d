package state

import (
	"context"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/storage"
)

// AppendReport prepends a completed run's report and truncates the log to
// the retention bound, dropping the oldest entries silently. The returned
// report carries the assigned id and timestamp and is valid for in-session
// use even when the durable write fails.
func (c *Coordinator) AppendReport(ctx context.Context, r flow.TestReport) flow.TestReport {
	if r.ID == "" {
		r.ID = flow.NewID()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = c.now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append([]flow.TestReport{r}, c.reports...)
	if len(c.reports) > c.opts.MaxReports {
		c.reports = c.reports[:c.opts.MaxReports]
	}
	c.persistLocked(ctx, storage.KeyReports, c.reports)
	return r
}

// ListReports returns a copy of the report log, newest first.
func (c *Coordinator) ListReports() []flow.TestReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]flow.TestReport(nil), c.reports...)
}

// GetReport returns one report by id.
func (c *Coordinator) GetReport(id string) (flow.TestReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return flow.TestReport{}, ErrNotFound
}
